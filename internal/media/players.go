package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/aihub/internal/debuglog"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition describes how to invoke one player.
type PlayerDefinition struct {
	Description string    `toml:"description"`
	Platforms   []string  `toml:"platforms"`
	Video       *TypeArgs `toml:"video,omitempty"`
	Audio       *TypeArgs `toml:"audio,omitempty"`
	Image       *TypeArgs `toml:"image,omitempty"`
	PDF         *TypeArgs `toml:"pdf,omitempty"`
	Link        *TypeArgs `toml:"link,omitempty"`
}

// TypeArgs are the arguments placed before the URL.
type TypeArgs struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

type PlayerRegistry struct {
	players map[string]PlayerDefinition
}

// NewPlayerRegistry loads the built-in definitions, then merges each
// readable file in overrides on top.
func NewPlayerRegistry(overrides ...string) (*PlayerRegistry, error) {
	var cfg PlayersConfig
	if err := toml.Unmarshal(playersTOML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}
	r := &PlayerRegistry{players: cfg.Players}
	if r.players == nil {
		r.players = make(map[string]PlayerDefinition)
	}

	for _, p := range overrides {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var user PlayersConfig
		if err := toml.Unmarshal(data, &user); err != nil {
			debuglog.Warnf("ignoring %s: %v", p, err)
			continue
		}
		for name, def := range user.Players {
			r.players[name] = def
		}
	}
	return r, nil
}

// Definition returns the named player, if known.
func (r *PlayerRegistry) Definition(name string) (PlayerDefinition, bool) {
	def, ok := r.players[name]
	return def, ok
}

// GetCommand builds the command line for playerName. Players without a
// definition are run with the URL as their only argument.
func (r *PlayerRegistry) GetCommand(playerName string, t Type, link string) (*exec.Cmd, error) {
	player, ok := r.players[playerName]
	if !ok {
		return exec.Command(playerName, link), nil
	}
	if !contains(player.Platforms, runtime.GOOS) {
		return nil, fmt.Errorf("%s not supported on %s", playerName, runtime.GOOS)
	}

	var ta *TypeArgs
	switch t {
	case TypeVideo:
		ta = player.Video
	case TypeAudio:
		ta = player.Audio
	case TypeImage:
		ta = player.Image
	case TypePDF:
		ta = player.PDF
	default:
		ta = player.Link
	}
	if ta == nil {
		return nil, fmt.Errorf("%s cannot open %s", playerName, t)
	}

	args := append(append([]string{}, ta.forPlatform(runtime.GOOS)...), link)
	return exec.Command(playerName, args...), nil
}

func (ta *TypeArgs) forPlatform(goos string) []string {
	switch goos {
	case "darwin":
		if len(ta.ArgsDarwin) > 0 {
			return ta.ArgsDarwin
		}
	case "linux":
		if len(ta.ArgsLinux) > 0 {
			return ta.ArgsLinux
		}
	case "windows":
		if len(ta.ArgsWindows) > 0 {
			return ta.ArgsWindows
		}
	}
	return ta.Args
}
