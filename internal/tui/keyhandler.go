package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/aihub/internal/catalog"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/media"
	"github.com/pders01/aihub/internal/render"
)

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.cancel()
		return a, tea.Quit
	}
	if a.inTextInput() {
		return a, a.handleTextInput(msg)
	}

	if cmd, handled := a.handleViewKey(msg); handled {
		return a, cmd
	}
	if cmd, handled := a.handleGlobalKey(msg); handled {
		return a, cmd
	}
	return a, a.delegate(msg)
}

func (a *App) inTextInput() bool {
	switch a.view {
	case ViewLogin:
		return true
	case ViewSearch:
		return a.searchInput.Focused()
	case ViewComments:
		return a.comment.Focused()
	case ViewList, ViewLiked:
		return a.filtering
	default:
		return false
	}
}

func (a *App) handleTextInput(msg tea.KeyMsg) tea.Cmd {
	switch a.view {
	case ViewLogin:
		return a.handleLoginKey(msg)
	case ViewSearch:
		return a.handleSearchInputKey(msg)
	case ViewComments:
		return a.handleCommentKey(msg)
	default:
		return a.handleFilterKey(msg)
	}
}

func (a *App) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.password.SetValue("")
		a.back()
		a.setStatus(StatusInfo, "")
		return nil
	case "tab", "shift+tab", "up", "down":
		if a.email.Focused() {
			a.email.Blur()
			return a.password.Focus()
		}
		a.password.Blur()
		return a.email.Focus()
	case "enter":
		if a.email.Focused() && a.password.Value() == "" {
			a.email.Blur()
			return a.password.Focus()
		}
		a.setLoading(MsgSigningIn)
		return a.login(a.email.Value(), a.password.Value())
	}
	var cmd tea.Cmd
	if a.email.Focused() {
		a.email, cmd = a.email.Update(msg)
	} else {
		a.password, cmd = a.password.Update(msg)
	}
	return cmd
}

func (a *App) handleSearchInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.searchScope = nil
		a.back()
		return nil
	case "enter", "tab", "down":
		if len(a.searchList.Items()) > 0 {
			a.searchInput.Blur()
			a.searchList.Select(0)
		}
		return nil
	}
	before := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	query := a.searchInput.Value()
	if query == before {
		return cmd
	}
	if len(strings.TrimSpace(query)) < 2 {
		a.searchSeq++
		a.searchList.SetItems(nil)
		a.setStatus(StatusInfo, "")
		return cmd
	}
	return tea.Batch(cmd, a.debounceSearch(query))
}

func (a *App) handleCommentKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.back()
		return nil
	case "tab":
		a.comment.Blur()
		return nil
	case "enter":
		return a.submitComment()
	}
	var cmd tea.Cmd
	a.comment, cmd = a.comment.Update(msg)
	return cmd
}

// handleFilterKey edits the client side text filter of the list or liked
// view. Every keystroke refilters what was already fetched.
func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.filterInput.SetValue("")
		a.applyFilter("")
		a.filtering = false
		a.filterInput.Blur()
		return nil
	case "enter":
		a.filtering = false
		a.filterInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.applyFilter(a.filterInput.Value())
	return cmd
}

func (a *App) applyFilter(q string) {
	if a.view == ViewLiked {
		a.liked.SetQuery(q)
		a.syncLiked()
		return
	}
	a.current().SetQuery(q)
	a.syncList()
}

func (a *App) startFilter(current string) tea.Cmd {
	a.filtering = true
	a.filterInput.SetValue(current)
	a.filterInput.CursorEnd()
	return a.filterInput.Focus()
}

func (a *App) handleViewKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch a.view {
	case ViewList:
		return a.handleListKey(msg)
	case ViewLiked:
		return a.handleLikedKey(msg)
	case ViewTags:
		return a.handleTagsKey(msg)
	case ViewDetail:
		return a.handleDetailKey(msg)
	case ViewComments:
		switch {
		case key.Matches(msg, a.keys.Select), msg.String() == "tab":
			return a.comment.Focus(), true
		}
	case ViewMedia:
		if key.Matches(msg, a.keys.Select) {
			if it, ok := a.mediaList.SelectedItem().(mediaItem); ok {
				return a.openLink(it.url), true
			}
			return nil, true
		}
	case ViewProfile:
		if key.Matches(msg, a.keys.Login) {
			return a.logout(), true
		}
	case ViewSearch:
		switch {
		case key.Matches(msg, a.keys.Select):
			return a.selectSearchResult(), true
		case msg.String() == "tab", msg.String() == "shift+tab",
			msg.String() == "up" && a.searchList.Index() == 0:
			return a.searchInput.Focus(), true
		case key.Matches(msg, a.keys.Like):
			if it, ok := a.searchList.SelectedItem().(searchResultItem); ok {
				return a.toggleLike(it.result.Item), true
			}
		}
	}
	return nil, false
}

func (a *App) handleListKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	ctrl := a.current()
	switch {
	case key.Matches(msg, a.keys.Select):
		if it := selectedContent(a.list); it != nil {
			return a.openDetail(it), true
		}
		return nil, true
	case key.Matches(msg, a.keys.NextKind):
		return a.switchKind(1), true
	case key.Matches(msg, a.keys.PrevKind):
		return a.switchKind(-1), true
	case key.Matches(msg, a.keys.Filter):
		return a.startFilter(ctrl.Query()), true
	case key.Matches(msg, a.keys.Tags):
		return a.openTags(), true
	case key.Matches(msg, a.keys.ClearTag):
		ctrl.Clear()
		a.filterInput.SetValue("")
		ctrl.Cached()
		a.syncList()
		a.setStatus(StatusInfo, "")
		return a.loadList(ctrl, false), true
	case key.Matches(msg, a.keys.Refresh):
		a.setLoading(MsgRefreshing)
		return a.loadList(ctrl, true), true
	case key.Matches(msg, a.keys.Like):
		if it := selectedContent(a.list); it != nil {
			return a.toggleLike(it), true
		}
		return nil, true
	case key.Matches(msg, a.keys.Comments):
		if it := selectedContent(a.list); it != nil {
			return a.openComments(it), true
		}
		return nil, true
	case key.Matches(msg, a.keys.OpenMedia):
		if it := selectedContent(a.list); it != nil {
			return a.openMedia(it), true
		}
		return nil, true
	}
	return nil, false
}

var likedKinds = append([]content.Kind{""}, content.Kinds()...)

func (a *App) handleLikedKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Select):
		if it := selectedContent(a.likedList); it != nil {
			return a.openDetail(it), true
		}
		return nil, true
	case key.Matches(msg, a.keys.NextKind), key.Matches(msg, a.keys.PrevKind):
		step := 1
		if key.Matches(msg, a.keys.PrevKind) {
			step = len(likedKinds) - 1
		}
		idx := 0
		for i, k := range likedKinds {
			if k == a.liked.Kind() {
				idx = i
			}
		}
		a.liked.SetKind(likedKinds[(idx+step)%len(likedKinds)])
		a.syncLiked()
		a.likedList.ResetSelected()
		return nil, true
	case key.Matches(msg, a.keys.Filter):
		return a.startFilter(a.liked.Query()), true
	case key.Matches(msg, a.keys.Tags):
		return a.openTags(), true
	case key.Matches(msg, a.keys.ClearTag):
		a.liked.Clear()
		a.filterInput.SetValue("")
		a.syncLiked()
		return nil, true
	case key.Matches(msg, a.keys.Refresh):
		a.setLoading(MsgRefreshing)
		return a.loadLiked(), true
	case key.Matches(msg, a.keys.Like):
		if it := selectedContent(a.likedList); it != nil {
			return a.toggleLike(it), true
		}
		return nil, true
	case key.Matches(msg, a.keys.OpenMedia):
		if it := selectedContent(a.likedList); it != nil {
			return a.openMedia(it), true
		}
		return nil, true
	}
	return nil, false
}

func (a *App) handleTagsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !key.Matches(msg, a.keys.Select) {
		return nil, false
	}
	it, ok := a.tagList.SelectedItem().(tagItem)
	if !ok {
		return nil, true
	}
	if a.tagsForLiked {
		// The liked filter takes several tags; stay in the menu.
		a.liked.ToggleTag(it.tag)
		a.setTagItems(a.liked.Tags())
		a.syncLiked()
		return nil, true
	}

	ctrl := a.current()
	if it.tag == ctrl.Tag() {
		ctrl.ClearTag()
	} else {
		ctrl.SetTag(it.tag)
	}
	a.back()
	ctrl.Cached()
	a.syncList()
	a.list.ResetSelected()
	a.setLoading(MsgLoading)
	return a.loadList(ctrl, false), true
}

func (a *App) handleDetailKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if a.detail == nil {
		return nil, false
	}
	switch {
	case key.Matches(msg, a.keys.Like):
		return a.toggleLike(a.detail), true
	case key.Matches(msg, a.keys.Comments):
		return a.openComments(a.detail), true
	case key.Matches(msg, a.keys.OpenMedia):
		return a.openMedia(a.detail), true
	case key.Matches(msg, a.keys.Refresh):
		a.setLoading(MsgLoadingDetail)
		return a.loadDetail(a.detailKey), true
	}
	return nil, false
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.cancel()
		return tea.Quit, true
	case key.Matches(msg, a.keys.Back):
		if a.view == ViewSearch {
			a.searchScope = nil
		}
		a.back()
		return nil, true
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil, true
	case key.Matches(msg, a.keys.Search):
		return a.openSearch(), true
	case key.Matches(msg, a.keys.Liked):
		return a.openLiked(), true
	case key.Matches(msg, a.keys.Profile):
		if !a.signedIn() {
			a.requireLogin(ViewProfile, "")
			return a.email.Focus(), true
		}
		a.navigate(ViewProfile)
		return nil, true
	case key.Matches(msg, a.keys.Login):
		if a.signedIn() {
			a.navigate(ViewProfile)
			return nil, true
		}
		a.requireLogin(a.view, "")
		return a.email.Focus(), true
	}
	return nil, false
}

// delegate forwards navigation keys to the widget of the current view.
func (a *App) delegate(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.view {
	case ViewList:
		a.list, cmd = a.list.Update(msg)
	case ViewLiked:
		a.likedList, cmd = a.likedList.Update(msg)
	case ViewTags:
		a.tagList, cmd = a.tagList.Update(msg)
	case ViewSearch:
		a.searchList, cmd = a.searchList.Update(msg)
	case ViewMedia:
		a.mediaList, cmd = a.mediaList.Update(msg)
	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
	case ViewComments:
		a.commentsVP, cmd = a.commentsVP.Update(msg)
	}
	return cmd
}

func selectedContent(l list.Model) content.Item {
	if it, ok := l.SelectedItem().(contentItem); ok {
		return it.item
	}
	return nil
}

func (a *App) switchKind(step int) tea.Cmd {
	n := len(a.controllers)
	a.kindIdx = (a.kindIdx + step + n) % n
	a.filtering = false
	ctrl := a.current()
	a.filterInput.SetValue(ctrl.Query())
	ctrl.Cached()
	a.syncList()
	a.list.ResetSelected()
	if !ctrl.Loaded() {
		a.setLoading(MsgLoading)
	} else {
		a.setStatus(StatusInfo, "")
	}
	return a.loadList(ctrl, false)
}

func (a *App) openTags() tea.Cmd {
	a.tagList.ResetSelected()
	if a.view == ViewLiked {
		a.tagsForLiked = true
		a.tagList.Title = "› liked tags"
		a.setTagItems(a.liked.Tags())
		a.navigate(ViewTags)
		return nil
	}
	a.tagsForLiked = false
	kind := a.current().Kind()
	a.tagList.Title = "› " + strings.ToLower(kind.Label()) + " tags"
	a.tagList.SetItems(nil)
	a.navigate(ViewTags)
	a.setLoading(MsgLoading)
	return a.loadTags(kind)
}

func (a *App) openDetail(item content.Item) tea.Cmd {
	key := content.KeyOf(item)
	a.detailKey = key
	a.detail = a.hub.Ledger().Overlay(item)
	a.detailReady = false
	a.viewport.SetContent("")
	a.blurInputs()
	a.navigate(ViewDetail)
	a.setLoading(MsgLoadingDetail)
	return tea.Batch(a.renderDetail(a.detail), a.loadDetail(key))
}

func (a *App) openComments(item content.Item) tea.Cmd {
	if !a.cfg.Features.Comments {
		return nil
	}
	if item.Kind() != content.KindTool {
		a.setStatus(StatusWarn, "Only tools have comments")
		return nil
	}
	if a.thread == nil || a.thread.ToolID() != item.Common().ID {
		a.thread = catalog.NewThread(a.hub, item.Common().ID)
		a.commentsVP.SetContent("")
		a.comment.SetValue("")
	}
	a.navigate(ViewComments)
	a.setLoading(MsgLoading)
	cmds := []tea.Cmd{a.loadComments(a.thread)}
	if a.signedIn() {
		cmds = append(cmds, a.comment.Focus(), textinput.Blink)
	}
	return tea.Batch(cmds...)
}

func (a *App) submitComment() tea.Cmd {
	if a.thread == nil {
		return nil
	}
	if !a.signedIn() {
		a.requireLogin(ViewComments, MsgSignInComment)
		return a.email.Focus()
	}
	text := a.comment.Value()
	if strings.TrimSpace(text) == "" {
		a.setStatus(StatusWarn, MsgEmptyComment)
		return nil
	}
	a.setLoading(MsgPosting)
	return a.postComment(a.thread, text)
}

// toggleLike flips the like locally, repaints, then confirms with the
// server in the background.
func (a *App) toggleLike(item content.Item) tea.Cmd {
	if !a.cfg.Features.Likes {
		return nil
	}
	if !a.signedIn() {
		a.requireLogin(a.view, MsgSignInToLike)
		return a.email.Focus()
	}
	p := a.hub.ToggleLike(item)
	return tea.Batch(a.syncAll(), a.commitLike(p))
}

func (a *App) openMedia(item content.Item) tea.Cmd {
	urls := render.MediaURLs(item)
	switch len(urls) {
	case 0:
		a.setStatus(StatusWarn, MsgNoLink)
		return nil
	case 1:
		return a.openItem(item)
	}
	items := make([]list.Item, len(urls))
	for i, u := range urls {
		t := media.TypeUnknown
		if a.detector != nil {
			t = a.detector.DetectType(u)
		}
		items[i] = mediaItem{url: u, mediaType: t, index: i, total: len(urls)}
	}
	a.mediaList.SetItems(items)
	a.mediaList.ResetSelected()
	a.navigate(ViewMedia)
	return nil
}

func (a *App) openSearch() tea.Cmd {
	a.searchScope = nil
	a.searchList.Title = "› search"
	if a.view == ViewDetail && a.detail != nil {
		a.searchScope = a.detail
		a.searchList.Title = "› search in " + a.detail.Common().Title
	}
	a.searchSeq++
	a.searchInput.SetValue("")
	a.searchList.SetItems(nil)
	a.navigate(ViewSearch)
	a.setStatus(StatusInfo, "")
	return tea.Batch(a.searchInput.Focus(), textinput.Blink)
}

func (a *App) selectSearchResult() tea.Cmd {
	it, ok := a.searchList.SelectedItem().(searchResultItem)
	if !ok {
		return nil
	}
	if a.searchScope != nil {
		a.searchScope = nil
		a.back()
		return nil
	}
	return a.openDetail(it.result.Item)
}

func (a *App) openLiked() tea.Cmd {
	if !a.signedIn() {
		a.requireLogin(ViewLiked, "")
		return a.email.Focus()
	}
	a.blurInputs()
	a.navigate(ViewLiked)
	a.syncLiked()
	if !a.liked.Loaded() {
		a.setLoading(MsgLoading)
	}
	return a.loadLiked()
}
