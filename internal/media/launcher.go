package media

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pders01/aihub/internal/config"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
	"github.com/pders01/aihub/internal/validation"
)

// ErrNoLink is returned for items without a link to open.
var ErrNoLink = errors.New("item has no link to open")

var lookPath = exec.LookPath

type Launcher struct {
	players       map[Type]string
	defaultOpener string
	registry      *PlayerRegistry
	detector      *TypeDetector
	validator     *validation.URLValidator
	start         func(*exec.Cmd) error
	log           *debuglog.FieldLogger
}

type Option func(*Launcher)

// WithLocalLinks allows links to loopback and private hosts, for backends
// that serve files from their own machine.
func WithLocalLinks() Option {
	return func(l *Launcher) { l.validator = validation.NewPermissiveURLValidator() }
}

// WithStarter replaces how commands are started.
func WithStarter(start func(*exec.Cmd) error) Option {
	return func(l *Launcher) { l.start = start }
}

// WithRegistry replaces the player definitions.
func WithRegistry(r *PlayerRegistry) Option {
	return func(l *Launcher) { l.registry = r }
}

func NewLauncher(cfg config.MediaConfig, opts ...Option) *Launcher {
	l := &Launcher{
		players:   make(map[Type]string),
		validator: validation.NewURLValidator(),
		start:     startDetached,
		log:       debuglog.WithFields(map[string]any{"component": "media"}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.registry == nil {
		registry, err := NewPlayerRegistry(filepath.Join(config.DefaultDir(), "players.toml"))
		if err != nil {
			l.log.Warnf("player definitions unavailable: %v", err)
			registry = &PlayerRegistry{players: make(map[string]PlayerDefinition)}
		}
		l.registry = registry
	}

	detector, err := NewTypeDetector()
	if err != nil {
		l.log.Warnf("media type table unavailable: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}
	l.detector = detector

	l.defaultOpener = cfg.DefaultOpener
	if l.defaultOpener == "" {
		l.defaultOpener = detector.GetDefaultOpener()
	}

	var players config.MediaPlayers
	switch runtime.GOOS {
	case "linux":
		players = cfg.Linux
	case "windows":
		players = cfg.Windows
	default:
		players = cfg.Darwin
	}
	for t, candidates := range map[Type][]string{
		TypeVideo: players.Video,
		TypeImage: players.Image,
		TypeAudio: players.Audio,
		TypePDF:   players.PDF,
	} {
		if p := findCommand(candidates...); p != "" {
			l.players[t] = p
		} else {
			l.players[t] = l.defaultOpener
		}
	}
	return l
}

// Open launches link with the player configured for its media type.
func (l *Launcher) Open(link string) error {
	return l.OpenAs(link, l.detector.DetectType(link))
}

// OpenItem launches the primary link of item.
func (l *Launcher) OpenItem(item content.Item) error {
	link := content.PrimaryURL(item)
	if link == "" {
		return ErrNoLink
	}
	return l.OpenAs(link, l.detector.DetectItem(item))
}

// OpenAs launches link as media type t. The player runs detached; its exit
// status is not reported.
func (l *Launcher) OpenAs(link string, t Type) error {
	cmd, err := l.Command(link, t)
	if err != nil {
		return err
	}
	l.log.Debugf("opening %s as %s with %s", link, t, cmd.Path)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", filepath.Base(cmd.Path), err)
	}
	return nil
}

// Command resolves the command that would open link without running it.
func (l *Launcher) Command(link string, t Type) (*exec.Cmd, error) {
	normalized, err := l.validator.ValidateAndNormalize(link)
	if err != nil {
		return nil, fmt.Errorf("refusing to open %q: %w", link, err)
	}

	player := l.players[t]
	if player == "" {
		player = l.defaultOpener
	}
	if player == "" {
		return nil, fmt.Errorf("no application found to open %s", t)
	}

	cmd, err := l.registry.GetCommand(player, t, normalized)
	if err != nil {
		cmd, err = l.registry.GetCommand(l.defaultOpener, t, normalized)
		if err != nil {
			cmd = exec.Command(l.defaultOpener, normalized)
		}
	}
	return cmd, nil
}

// Player reports which program handles media type t.
func (l *Launcher) Player(t Type) string {
	if p := l.players[t]; p != "" {
		return p
	}
	return l.defaultOpener
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
