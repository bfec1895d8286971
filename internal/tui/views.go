package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/aihub/internal/content"
)

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}
	var body string
	switch a.view {
	case ViewList:
		body = a.listView()
	case ViewLiked:
		body = a.likedView()
	case ViewTags:
		body = a.tagsView()
	case ViewDetail:
		body = a.detailView()
	case ViewComments:
		body = a.commentsView()
	case ViewMedia:
		body = a.mediaList.View()
	case ViewLogin:
		body = a.loginView()
	case ViewProfile:
		body = a.profileView()
	case ViewSearch:
		body = a.searchView()
	case ViewNotFound:
		body = a.notFoundView()
	}

	body = ContentWrapper(a.width, a.height-3).Render(body)
	return lipgloss.JoinVertical(lipgloss.Top, body, a.separator(), a.statusBar())
}

func (a *App) separator() string {
	w := a.width - 1
	if w < 0 {
		w = 0
	}
	return SeparatorStyle.Render(strings.Repeat("─", w))
}

// kindTabs is the header row of the list view.
func (a *App) kindTabs() string {
	tabs := make([]string, len(a.controllers))
	for i, c := range a.controllers {
		label := c.Kind().Label()
		if i == a.kindIdx {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}
	right := ""
	if a.signedIn() {
		right = renderMuted("● " + a.session.User.DisplayName)
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) filterLine() string {
	if a.filtering {
		return a.filterInput.View()
	}
	return ""
}

func (a *App) listView() string {
	ctrl := a.current()
	rows := []string{a.kindTabs()}
	if f := a.filterLine(); f != "" {
		rows = append(rows, f)
	}
	if ctrl.Loaded() && len(ctrl.Items()) == 0 {
		msg := "Nothing here yet"
		if tag := ctrl.Tag(); tag != "" {
			msg = fmt.Sprintf("No %s tagged #%s", strings.ToLower(ctrl.Kind().Label()), tag)
		}
		rows = append(rows, renderCentered(a.width, a.height-5, GetCompactBanner(msg)))
		return lipgloss.JoinVertical(lipgloss.Top, rows...)
	}
	rows = append(rows, a.list.View())
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) likedView() string {
	var rows []string
	if f := a.filterLine(); f != "" {
		rows = append(rows, f)
	}
	if a.liked.Loaded() && len(a.liked.Visible()) == 0 {
		rows = append(rows, renderHeader(a.likedList.Title, "", a.width),
			renderCentered(a.width, a.height-5, renderMuted("No liked content matches")))
		return lipgloss.JoinVertical(lipgloss.Top, rows...)
	}
	rows = append(rows, a.likedList.View())
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) tagsView() string {
	if len(a.tagList.Items()) == 0 && !a.loading {
		return renderCentered(a.width, a.height-3, renderMuted("No tags"))
	}
	return a.tagList.View()
}

func (a *App) detailView() string {
	if !a.detailReady {
		return renderCentered(a.width, a.height-3, renderMuted(MsgLoadingDetail))
	}
	return a.viewport.View()
}

func (a *App) commentsView() string {
	title := "Comments"
	if a.detail != nil && a.thread != nil && a.detail.Common().ID == a.thread.ToolID() {
		title = "Comments on " + a.detail.Common().Title
	}
	var input string
	if a.signedIn() {
		input = renderInputFrame(a.comment.View(), a.comment.Focused(), a.width-8)
	} else {
		input = renderHelp(MsgSignInComment + " (press " + a.keys.Login.Help().Key + ")")
	}
	body := a.commentsVP.View()
	if a.thread != nil && len(a.thread.Comments()) == 0 && a.thread.Err() == nil && !a.loading {
		body = renderMuted("No comments yet. Be the first.")
	}
	return lipgloss.JoinVertical(lipgloss.Top, renderHeader("› "+title, "", a.width), body, "", input)
}

func renderComments(comments []content.Comment, width int) string {
	if len(comments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range comments {
		author := c.Author.DisplayName
		if author == "" {
			author = "anonymous"
		}
		b.WriteString(CommentAuthorStyle.Render(author))
		if c.CreatedAt != "" {
			b.WriteString(" " + TimeStyle.Render(shortTime(c.CreatedAt)))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width - 2).PaddingLeft(2).Render(c.Text))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// shortTime trims an RFC 3339 timestamp to its date and minute.
func shortTime(s string) string {
	if len(s) >= 16 && s[10] == 'T' {
		return s[:10] + " " + s[11:16]
	}
	return s
}

func (a *App) loginView() string {
	return renderCentered(a.width, a.height-3, lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("› sign in"),
		"",
		renderInputFrame(a.email.View(), a.email.Focused(), 40),
		renderInputFrame(a.password.View(), a.password.Focused(), 40),
		"",
		renderHelp("Tab: switch field • Enter: sign in • Esc: cancel"),
	))
}

func (a *App) profileView() string {
	if !a.signedIn() {
		return renderCentered(a.width, a.height-3, renderMuted("Not signed in"))
	}
	u := a.session.User
	rows := []string{
		TitleStyle.Render("› profile"),
		"",
		ModalHighlightStyle.Render(u.DisplayName),
		ModalTextStyle.Render(u.Email),
	}
	if !a.session.CreatedAt.IsZero() {
		rows = append(rows, renderMuted("Signed in "+a.session.CreatedAt.Local().Format("Jan 2, 15:04")))
	}
	if a.liked.Loaded() {
		rows = append(rows, "", ModalTextStyle.Render(fmt.Sprintf("%d liked", len(a.liked.Visible()))))
	}
	rows = append(rows, "", renderHelp(fmt.Sprintf("%s: liked • %s: sign out • %s: back",
		a.keys.Liked.Help().Key, a.keys.Login.Help().Key, a.keys.Back.Help().Key)))
	return renderCentered(a.width, a.height-3, lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (a *App) searchView() string {
	hint := "Type to search • Tab/↓: results • Esc: back"
	if !a.searchInput.Focused() {
		if len(a.searchList.Items()) > 0 {
			hint = "↑↓: navigate • Enter: open • Tab: search box • Esc: back"
		} else {
			hint = "No results • Tab: search box • Esc: back"
		}
	}
	return lipgloss.JoinVertical(lipgloss.Top,
		renderHeader(a.searchList.Title, "", a.width),
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.width-8),
		renderMuted(hint),
		"",
		a.searchList.View(),
	)
}

func (a *App) notFoundView() string {
	msg := "That item does not exist"
	if a.notFoundKey.ID != "" {
		msg = fmt.Sprintf("No %s with id %q", strings.TrimSuffix(strings.ToLower(a.notFoundKey.Kind.Label()), "s"), a.notFoundKey.ID)
	}
	return renderCentered(a.width, a.height-3, lipgloss.JoinVertical(lipgloss.Center,
		ErrorMessageStyle.Render("404"),
		"",
		ModalTextStyle.Render(msg),
		"",
		renderHelp("Esc: back"),
	))
}

func (a *App) statusBar() string {
	var left string
	if a.status != "" {
		style := StatusInfoStyle
		switch a.statusKind {
		case StatusSuccess:
			style = StatusSuccessStyle
		case StatusWarn:
			style = StatusWarnStyle
		case StatusError:
			style = StatusErrorStyle
		}
		text := a.status
		if a.statusKind == StatusError {
			text = "✗ " + text
		}
		if a.loading {
			text = a.spinner.View() + " " + text
		}
		left = style.Render(truncateEnd(text, a.width-2))
	}

	helpView := a.help.View(a.keys)
	if a.help.ShowAll || left == "" {
		if left == "" {
			return StatusBarStyle.Width(a.width).Render(helpView)
		}
		return lipgloss.JoinVertical(lipgloss.Top,
			StatusBarStyle.Width(a.width).Render(left),
			StatusBarStyle.Width(a.width).Render(helpView))
	}
	return StatusBarStyle.Width(a.width).Render(left)
}
