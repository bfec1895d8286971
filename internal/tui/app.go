package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/aihub/internal/catalog"
	"github.com/pders01/aihub/internal/config"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
	"github.com/pders01/aihub/internal/media"
	"github.com/pders01/aihub/internal/render"
	"github.com/pders01/aihub/internal/search"
)

// Auth signs the user in and out. *api.Client implements it.
type Auth interface {
	Login(ctx context.Context, email, password string) (*content.Session, error)
	Logout() error
	Session() (*content.Session, error)
}

// TagSource serves the tag menus of tools and documents. *api.Client
// implements it.
type TagSource interface {
	Tags(ctx context.Context) ([]string, error)
	DocumentTags(ctx context.Context) ([]string, error)
}

// Opener hands links to external programs. *media.Launcher implements it.
type Opener interface {
	Open(link string) error
	OpenItem(item content.Item) error
}

// Deps is everything the views need from the rest of the program.
type Deps struct {
	Config   *config.Config
	Hub      *catalog.Hub
	Auth     Auth
	Tags     TagSource
	Searcher search.Searcher
	Opener   Opener
	Renderer *render.Renderer
}

type App struct {
	cfg      *config.Config
	hub      *catalog.Hub
	auth     Auth
	tags     TagSource
	searcher search.Searcher
	opener   Opener
	renderer *render.Renderer
	detector *media.TypeDetector
	keys     KeyMap
	log      *debuglog.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	controllers []*catalog.Controller
	kindIdx     int
	liked       *catalog.Liked
	thread      *catalog.Thread
	session     *content.Session

	view    View
	history []View

	list        list.Model
	likedList   list.Model
	tagList     list.Model
	searchList  list.Model
	mediaList   list.Model
	filterInput textinput.Model
	searchInput textinput.Model
	comment     textinput.Model
	email       textinput.Model
	password    textinput.Model
	viewport    viewport.Model
	commentsVP  viewport.Model
	spinner     spinner.Model
	help        help.Model

	filtering bool
	// tagsForLiked says the tag menu edits the liked filter rather than
	// the current kind's tag.
	tagsForLiked bool

	detailKey     content.Key
	detail        content.Item
	detailReady   bool
	notFoundKey   content.Key
	searchScope   content.Item
	searchSeq     int
	afterLogin    View
	loading       bool
	status        string
	statusKind    StatusKind
	width, height int
}

func newList(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)
	return l
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	return ti
}

func NewApp(d Deps) *App {
	cfg := d.Config
	if cfg == nil {
		cfg = config.TestConfig()
	}
	ApplyColors(cfg.UI.Colors)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		hub:      d.Hub,
		auth:     d.Auth,
		tags:     d.Tags,
		searcher: d.Searcher,
		opener:   d.Opener,
		renderer: d.Renderer,
		keys:     NewKeyMap(cfg.Keys.Bindings),
		log:      debuglog.WithFields(map[string]any{"component": "tui"}),
		ctx:      ctx,
		cancel:   cancel,
		liked:    catalog.NewLiked(d.Hub),
		view:     ViewList,

		list:        newList("› tools"),
		likedList:   newList("› liked"),
		tagList:     newList("› tags"),
		searchList:  newList("› search results"),
		mediaList:   newList("› open"),
		filterInput: newInput("Filter by title, description or tag…"),
		searchInput: newInput("Search everything…"),
		comment:     newInput("Write a comment…"),
		email:       newInput("email"),
		password:    newInput("password"),
		viewport:    viewport.New(0, 0),
		commentsVP:  viewport.New(0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:        help.New(),
	}
	if a.renderer == nil {
		a.renderer = render.NewRenderer(cfg.UI.Detail.WordWrapMinWidth, cfg.UI.Detail.WordWrapMaxWidth, cfg.UI.Detail.Style)
	}
	if det, err := media.NewTypeDetector(); err == nil {
		a.detector = det
	} else {
		a.log.Warnf("media types: %v", err)
	}
	a.password.EchoMode = textinput.EchoPassword
	a.password.EchoCharacter = '•'
	a.spinner.Style = lipgloss.NewStyle().Foreground(AccentColor)

	for _, kind := range content.Kinds() {
		a.controllers = append(a.controllers, catalog.NewController(d.Hub, kind))
	}
	return a
}

func (a *App) Init() tea.Cmd {
	ctrl := a.current()
	ctrl.Cached()
	a.syncList()
	a.setLoading(MsgLoading)
	return tea.Batch(
		a.loadSession(),
		a.loadList(ctrl, false),
		a.prefetch(),
		a.spinner.Tick,
	)
}

// Close cancels in-flight requests. Call it once the program has exited.
func (a *App) Close() {
	a.cancel()
}

func (a *App) current() *catalog.Controller {
	return a.controllers[a.kindIdx]
}

func (a *App) controller(kind content.Kind) *catalog.Controller {
	for _, c := range a.controllers {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

func (a *App) signedIn() bool {
	return a.session.Valid()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		if a.view == ViewDetail && a.detail != nil {
			return a, a.renderDetail(a.detail)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionMsg:
		a.session = msg.session
		return a, nil

	case prefetchedMsg:
		if msg.err != nil {
			a.log.Debugf("prefetch: %v", msg.err)
		}
		return a, nil

	case listLoadedMsg:
		return a, a.onListLoaded(msg)

	case tagsLoadedMsg:
		return a, a.onTagsLoaded(msg)

	case detailLoadedMsg:
		return a, a.onDetailLoaded(msg)

	case detailRenderedMsg:
		if msg.key == a.detailKey {
			a.viewport.SetContent(msg.content)
			if !a.detailReady {
				a.viewport.GotoTop()
			}
			a.detailReady = true
		}
		return a, nil

	case commentsLoadedMsg:
		return a, a.onCommentsLoaded(msg)

	case likeCommittedMsg:
		return a, a.onLikeCommitted(msg)

	case likedLoadedMsg:
		if msg.liked != a.liked {
			return a, nil
		}
		a.liked.Apply(msg.result)
		a.clearLoading()
		if msg.result.Err != nil {
			return a, a.fail(msg.result.Err, ViewLiked)
		}
		a.syncLiked()
		return a, nil

	case loginDoneMsg:
		return a, a.onLogin(msg)

	case logoutDoneMsg:
		if msg.err != nil {
			a.setStatus(StatusError, msg.err.Error())
			return a, nil
		}
		a.session = nil
		a.resetCatalog()
		a.view, a.history = ViewList, nil
		a.setStatus(StatusInfo, MsgSignedOut)
		return a, a.loadList(a.current(), false)

	case searchDebounceMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			return a, nil
		}
		return a, a.runSearch(msg.seq, msg.query)

	case searchResultsMsg:
		if msg.seq != a.searchSeq {
			return a, nil
		}
		if msg.err != nil {
			a.setStatus(StatusError, msg.err.Error())
			return a, nil
		}
		a.setSearchResults(msg.results)
		return a, nil

	case openedMsg:
		if msg.err != nil {
			a.setStatus(StatusError, msg.err.Error())
		}
		return a, nil

	case errorMsg:
		a.clearLoading()
		return a, a.fail(msg.err, a.view)
	}
	return a, nil
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	body := h - 4
	if body < 3 {
		body = 3
	}
	a.list.SetSize(w, body-1)
	a.likedList.SetSize(w, body-1)
	a.tagList.SetSize(w, body)
	a.mediaList.SetSize(w, body)
	searchHeight := body - 5
	if searchHeight < 3 {
		searchHeight = 3
	}
	a.searchList.SetSize(w, searchHeight)
	a.viewport.Width, a.viewport.Height = w, body
	a.commentsVP.Width, a.commentsVP.Height = w, body-4

	inputWidth := w - 8
	if inputWidth < 10 {
		inputWidth = w
	}
	for _, ti := range []*textinput.Model{&a.filterInput, &a.searchInput, &a.comment, &a.email, &a.password} {
		ti.Width = inputWidth
	}
	a.help.Width = w
}

func (a *App) navigate(v View) {
	if a.view == v {
		return
	}
	a.history = append(a.history, a.view)
	a.view = v
}

func (a *App) back() {
	if n := len(a.history); n > 0 {
		a.view = a.history[n-1]
		a.history = a.history[:n-1]
	} else {
		a.view = ViewList
	}
	a.blurInputs()
}

func (a *App) blurInputs() {
	a.filtering = false
	a.filterInput.Blur()
	a.searchInput.Blur()
	a.comment.Blur()
	a.email.Blur()
	a.password.Blur()
}

func (a *App) setStatus(kind StatusKind, text string) {
	a.status, a.statusKind = text, kind
	a.loading = false
}

func (a *App) setLoading(text string) {
	a.status, a.statusKind = text, StatusInfo
	a.loading = true
}

func (a *App) clearLoading() {
	if a.loading {
		a.loading = false
		a.status = ""
	}
}

// fail routes err: an expired session goes to the login view without a
// banner, anything else shows a retry hint.
func (a *App) fail(err error, from View) tea.Cmd {
	switch catalog.Classify(err) {
	case catalog.FailureNone:
		return nil
	case catalog.FailureAuth:
		if !a.sessionEnded() {
			a.log.Debugf("%s: 401 for a superseded session ignored", from)
			return nil
		}
		a.requireLogin(from, MsgSessionExpired)
		return nil
	default:
		a.log.Warnf("%s: %v", from, err)
		a.setStatus(StatusError, catalog.Describe(err))
		return nil
	}
}

// sessionEnded reports whether a 401 actually signed the user out. The
// client keeps a session saved after the rejected request was sent, so
// late answers from before a sign-in leave it in place.
func (a *App) sessionEnded() bool {
	s, err := a.auth.Session()
	if err != nil {
		a.log.Warnf("loading session: %v", err)
	}
	if err == nil && s.Valid() {
		a.session = s
		return false
	}
	a.session = nil
	return true
}

// requireLogin opens the login form and returns to next once signed in.
func (a *App) requireLogin(next View, why string) {
	a.afterLogin = next
	a.blurInputs()
	a.navigate(ViewLogin)
	a.password.SetValue("")
	a.email.Focus()
	a.setStatus(StatusWarn, why)
}

// resetCatalog forgets everything that depends on who is signed in.
func (a *App) resetCatalog() {
	a.hub.Reset()
	a.liked = catalog.NewLiked(a.hub)
	a.likedList.SetItems(nil)
	a.thread = nil
}

func (a *App) syncList() {
	ctrl := a.current()
	title := "› " + ctrl.Kind().Label()
	if tag := ctrl.Tag(); tag != "" {
		title += " #" + tag
	}
	if q := ctrl.Query(); q != "" {
		title += " /" + q
	}
	a.list.Title = title
	var visible []content.Item
	if ctrl.Loaded() {
		visible = ctrl.Visible()
	}
	a.list.SetItems(contentItems(visible, false, a.cfg.UI.Detail.MaxDescriptionLength))
}

func (a *App) syncLiked() {
	title := "› liked"
	if k := a.liked.Kind(); k != "" {
		title += " " + k.Label()
	}
	for _, t := range a.liked.SelectedTags() {
		title += " #" + t
	}
	if q := a.liked.Query(); q != "" {
		title += " /" + q
	}
	a.likedList.Title = title
	a.likedList.SetItems(contentItems(a.liked.Visible(), true, a.cfg.UI.Detail.MaxDescriptionLength))
}

// syncAll repaints every view that shows like state.
func (a *App) syncAll() tea.Cmd {
	a.syncList()
	if a.liked.Loaded() {
		a.syncLiked()
	}
	if a.detail != nil {
		a.detail = a.hub.Ledger().Overlay(a.detail)
		if a.view == ViewDetail {
			return a.renderDetail(a.detail)
		}
	}
	return nil
}

func (a *App) onListLoaded(msg listLoadedMsg) tea.Cmd {
	ctrl := a.controller(msg.result.Key.Kind)
	if ctrl == nil || !ctrl.Apply(msg.result) {
		return nil
	}
	if ctrl != a.current() {
		return nil
	}
	a.clearLoading()
	if err := msg.result.Err; err != nil {
		if catalog.Classify(err) == catalog.FailureAuth && !a.sessionEnded() {
			return a.loadList(ctrl, true)
		}
		return a.fail(err, ViewList)
	}
	a.syncList()
	if tag := ctrl.Tag(); tag != "" {
		a.setStatus(StatusInfo, MsgTagFilter(tag))
	} else if msg.refresh {
		a.setStatus(StatusSuccess, MsgItemsCount(ctrl.Kind(), len(ctrl.Items())))
	}
	return nil
}

func (a *App) onTagsLoaded(msg tagsLoadedMsg) tea.Cmd {
	a.clearLoading()
	if msg.err != nil {
		return a.fail(msg.err, ViewTags)
	}
	if a.view != ViewTags || msg.liked != a.tagsForLiked {
		return nil
	}
	if !msg.liked && msg.kind != a.current().Kind() {
		return nil
	}
	a.setTagItems(msg.tags)
	return nil
}

func (a *App) setTagItems(tags []string) {
	selected := map[string]bool{}
	if a.tagsForLiked {
		for _, t := range a.liked.SelectedTags() {
			selected[t] = true
		}
	} else if t := a.current().Tag(); t != "" {
		selected[t] = true
	}
	items := make([]list.Item, len(tags))
	for i, t := range tags {
		items[i] = tagItem{tag: t, selected: selected[t]}
	}
	a.tagList.SetItems(items)
}

func (a *App) onDetailLoaded(msg detailLoadedMsg) tea.Cmd {
	r := msg.result
	if r.Key != a.detailKey {
		return nil
	}
	a.clearLoading()
	switch {
	case r.Err != nil:
		return a.fail(r.Err, ViewDetail)
	case r.NotFound:
		a.notFoundKey = r.Key
		a.detail = nil
		a.view = ViewNotFound
		return nil
	}
	a.detail = r.Item
	return a.renderDetail(r.Item)
}

func (a *App) onCommentsLoaded(msg commentsLoadedMsg) tea.Cmd {
	if a.thread == nil || !a.thread.Apply(msg.result) {
		return nil
	}
	a.clearLoading()
	if err := msg.result.Err; err != nil {
		if catalog.IsEmptyComment(err) {
			a.setStatus(StatusWarn, MsgEmptyComment)
			return nil
		}
		return a.fail(err, ViewComments)
	}
	if msg.posted {
		a.comment.SetValue("")
		a.setStatus(StatusSuccess, MsgCommentPosted)
	}
	a.commentsVP.SetContent(renderComments(a.thread.Comments(), a.width))
	a.commentsVP.GotoBottom()
	return nil
}

func (a *App) onLikeCommitted(msg likeCommittedMsg) tea.Cmd {
	out := msg.outcome
	cmd := a.syncAll()
	switch {
	case out.AuthExpired && a.sessionEnded():
		a.requireLogin(a.view, MsgSessionExpired)
	case out.Err != nil:
		a.setStatus(StatusError, MsgLikeFailed(out.Err))
	}
	return cmd
}

func (a *App) onLogin(msg loginDoneMsg) tea.Cmd {
	if msg.err != nil {
		a.password.SetValue("")
		a.setStatus(StatusError, catalog.Describe(msg.err))
		return nil
	}
	a.session = msg.session
	thread := a.thread
	a.resetCatalog()
	a.thread = thread
	a.blurInputs()
	a.password.SetValue("")

	next := a.afterLogin
	if next == ViewLogin {
		next = ViewList
	}
	// Leave the login form out of history.
	if n := len(a.history); n > 0 && a.history[n-1] == next {
		a.history = a.history[:n-1]
	}
	a.view = next
	a.setStatus(StatusSuccess, MsgSignedIn(msg.session.User.DisplayName))

	cmds := []tea.Cmd{a.loadList(a.current(), true)}
	switch next {
	case ViewLiked:
		cmds = append(cmds, a.loadLiked())
	case ViewDetail:
		if a.detail != nil {
			cmds = append(cmds, a.loadDetail(a.detailKey))
		}
	case ViewComments:
		if a.thread != nil {
			cmds = append(cmds, a.loadComments(a.thread))
		}
	}
	return tea.Batch(cmds...)
}

func (a *App) setSearchResults(results []*search.Result) {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = searchResultItem{result: r}
	}
	a.searchList.SetItems(items)
	if len(results) == 0 {
		a.setStatus(StatusInfo, MsgNoResults)
	} else {
		a.setStatus(StatusInfo, MsgResultsCount(len(results)))
	}
}
