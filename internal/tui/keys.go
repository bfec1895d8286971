package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/aihub/internal/config"
)

// KeyMap holds the configurable bindings. It doubles as the help.KeyMap
// for the footer.
type KeyMap struct {
	Quit      key.Binding
	Search    key.Binding
	Filter    key.Binding
	Tags      key.Binding
	ClearTag  key.Binding
	Like      key.Binding
	Comments  key.Binding
	Liked     key.Binding
	Profile   key.Binding
	Login     key.Binding
	Refresh   key.Binding
	OpenMedia key.Binding
	NextKind  key.Binding
	PrevKind  key.Binding
	Back      key.Binding
	Help      key.Binding
	Select    key.Binding
	ForceQuit key.Binding
}

func bind(k, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(k), key.WithHelp(k, desc))
}

func NewKeyMap(b config.KeyBindings) KeyMap {
	return KeyMap{
		Quit:      bind(b.Quit, "quit"),
		Search:    bind(b.Search, "search"),
		Filter:    bind(b.Filter, "filter"),
		Tags:      bind(b.Tags, "tags"),
		ClearTag:  bind(b.ClearTag, "clear filters"),
		Like:      bind(b.Like, "like"),
		Comments:  bind(b.Comments, "comments"),
		Liked:     bind(b.Liked, "liked"),
		Profile:   bind(b.Profile, "profile"),
		Login:     bind(b.Login, "sign in"),
		Refresh:   bind(b.Refresh, "refresh"),
		OpenMedia: bind(b.OpenMedia, "open"),
		NextKind:  bind(b.NextKind, "next kind"),
		PrevKind:  bind(b.PrevKind, "prev kind"),
		Back:      bind(b.Back, "back"),
		Help:      bind(b.Help, "help"),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Search, k.Tags, k.Like, k.Liked, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.Back, k.NextKind, k.PrevKind},
		{k.Filter, k.Tags, k.ClearTag, k.Search},
		{k.Like, k.Comments, k.OpenMedia, k.Refresh},
		{k.Liked, k.Profile, k.Login, k.Help, k.Quit},
	}
}
