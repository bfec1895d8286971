package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/aihub/internal/catalog"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/optimistic"
	"github.com/pders01/aihub/internal/search"
)

const (
	searchDebounce = 250 * time.Millisecond
	searchLimit    = 50
)

type sessionMsg struct {
	session *content.Session
}

type prefetchedMsg struct {
	err error
}

type listLoadedMsg struct {
	result  catalog.Result
	refresh bool
}

type tagsLoadedMsg struct {
	kind  content.Kind
	liked bool
	tags  []string
	err   error
}

type detailLoadedMsg struct {
	result catalog.DetailResult
}

type detailRenderedMsg struct {
	key     content.Key
	content string
}

type commentsLoadedMsg struct {
	result catalog.CommentsResult
	posted bool
}

type likeCommittedMsg struct {
	outcome optimistic.Outcome
}

type likedLoadedMsg struct {
	liked  *catalog.Liked
	result catalog.LikedResult
}

type loginDoneMsg struct {
	session *content.Session
	err     error
}

type logoutDoneMsg struct {
	err error
}

type searchDebounceMsg struct {
	seq   int
	query string
}

type searchResultsMsg struct {
	seq     int
	results []*search.Result
	err     error
}

type openedMsg struct {
	err error
}

type errorMsg struct {
	err error
}

func (a *App) loadSession() tea.Cmd {
	return func() tea.Msg {
		s, err := a.auth.Session()
		if err != nil {
			a.log.Warnf("loading session: %v", err)
			return sessionMsg{}
		}
		return sessionMsg{session: s}
	}
}

func (a *App) prefetch() tea.Cmd {
	return func() tea.Msg {
		return prefetchedMsg{err: a.hub.Prefetch(a.ctx)}
	}
}

// loadList fetches the controller's current key. The key is captured now
// so a result that arrives after the filter moved on is dropped by Apply.
func (a *App) loadList(ctrl *catalog.Controller, refresh bool) tea.Cmd {
	key := ctrl.Key()
	return func() tea.Msg {
		if refresh {
			return listLoadedMsg{result: ctrl.Reload(a.ctx, key), refresh: true}
		}
		return listLoadedMsg{result: ctrl.Fetch(a.ctx, key)}
	}
}

func (a *App) loadTags(kind content.Kind) tea.Cmd {
	ctrl := a.controller(kind)
	return func() tea.Msg {
		var (
			tags []string
			err  error
		)
		switch kind {
		case content.KindTool:
			tags, err = a.tags.Tags(a.ctx)
		case content.KindDocument:
			tags, err = a.tags.DocumentTags(a.ctx)
		default:
			// News and podcasts have no tag endpoint; collect tags from the
			// unfiltered list instead.
			r := ctrl.Fetch(a.ctx, content.AllOf(kind))
			tags, err = content.DistinctTags(r.Items), r.Err
		}
		return tagsLoadedMsg{kind: kind, tags: tags, err: err}
	}
}

func (a *App) loadDetail(key content.Key) tea.Cmd {
	return func() tea.Msg {
		return detailLoadedMsg{result: a.hub.LoadDetail(a.ctx, key)}
	}
}

func (a *App) renderDetail(item content.Item) tea.Cmd {
	key := content.KeyOf(item)
	width := a.width
	return func() tea.Msg {
		out, err := a.renderer.Item(item, width)
		if err != nil {
			out = fmt.Sprintf("Failed to render %s: %v", item.Common().Title, err)
		}
		return detailRenderedMsg{key: key, content: out}
	}
}

func (a *App) loadComments(t *catalog.Thread) tea.Cmd {
	return func() tea.Msg {
		return commentsLoadedMsg{result: t.Fetch(a.ctx)}
	}
}

func (a *App) postComment(t *catalog.Thread, text string) tea.Cmd {
	return func() tea.Msg {
		return commentsLoadedMsg{result: t.Post(a.ctx, text), posted: true}
	}
}

func (a *App) commitLike(p *optimistic.Pending) tea.Cmd {
	return func() tea.Msg {
		return likeCommittedMsg{outcome: p.Commit(a.ctx)}
	}
}

func (a *App) loadLiked() tea.Cmd {
	liked := a.liked
	return func() tea.Msg {
		return likedLoadedMsg{liked: liked, result: liked.Fetch(a.ctx)}
	}
}

func (a *App) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		s, err := a.auth.Login(a.ctx, email, password)
		return loginDoneMsg{session: s, err: err}
	}
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{err: a.auth.Logout()}
	}
}

func (a *App) debounceSearch(query string) tea.Cmd {
	a.searchSeq++
	seq := a.searchSeq
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq, query: query}
	})
}

func (a *App) runSearch(seq int, query string) tea.Cmd {
	scope := a.searchScope
	return func() tea.Msg {
		var (
			res []*search.Result
			err error
		)
		if scope != nil {
			res, err = a.searcher.SearchIn(scope, query)
		} else {
			res, err = a.searcher.Search(query, searchLimit)
		}
		return searchResultsMsg{seq: seq, results: res, err: err}
	}
}

func (a *App) openItem(item content.Item) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: a.opener.OpenItem(item)}
	}
}

func (a *App) openLink(link string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: a.opener.Open(link)}
	}
}
