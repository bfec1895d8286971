package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/pders01/aihub/internal/validation"
	"github.com/spf13/viper"
)

const envPrefix = "AIHUB"

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
	Features FeatureConfig  `mapstructure:"features"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	// Retries applies to GET requests only.
	Retries int `mapstructure:"retries"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type CacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Persist bool          `mapstructure:"persist"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Detail DetailConfig `mapstructure:"detail"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type DetailConfig struct {
	MaxDescriptionLength int    `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int    `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int    `mapstructure:"word_wrap_min_width"`
	Style                string `mapstructure:"style"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux"`
	Windows       MediaPlayers `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

type MediaPlayers struct {
	Video []string `mapstructure:"video"`
	Image []string `mapstructure:"image"`
	Audio []string `mapstructure:"audio"`
	PDF   []string `mapstructure:"pdf"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Search    string `mapstructure:"search"`
	Filter    string `mapstructure:"filter"`
	Tags      string `mapstructure:"tags"`
	ClearTag  string `mapstructure:"clear_tag"`
	Like      string `mapstructure:"like"`
	Comments  string `mapstructure:"comments"`
	Liked     string `mapstructure:"liked"`
	Profile   string `mapstructure:"profile"`
	Login     string `mapstructure:"login"`
	Refresh   string `mapstructure:"refresh"`
	OpenMedia string `mapstructure:"open_media"`
	NextKind  string `mapstructure:"next_kind"`
	PrevKind  string `mapstructure:"prev_kind"`
	Back      string `mapstructure:"back"`
	Help      string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type FeatureConfig struct {
	Comments bool `mapstructure:"comments"`
	Likes    bool `mapstructure:"likes"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8080/api",
			Timeout:   10 * time.Second,
			UserAgent: "aihub/1.0 (https://github.com/pders01/aihub)",
			Retries:   2,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(homeDir, ".aihub.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".aihub", "index.bleve"),
		},
		Cache: CacheConfig{
			TTL:     5 * time.Minute,
			Persist: true,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#7C3AED",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Detail: DetailConfig{
				MaxDescriptionLength: 150,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Video: []string{"iina", "mpv", "vlc"},
				Image: []string{"preview", "open"},
				Audio: []string{"mpv", "vlc", "open"},
				PDF:   []string{"preview", "open"},
			},
			Linux: MediaPlayers{
				Video: []string{"mpv", "vlc", "mplayer"},
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
				Audio: []string{"mpv", "vlc", "mplayer"},
				PDF:   []string{"zathura", "evince", "xdg-open"},
			},
			Windows: MediaPlayers{
				Video: []string{"mpv", "vlc"},
				Image: []string{"start"},
				Audio: []string{"mpv", "vlc"},
				PDF:   []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Search:    "s",
				Filter:    "/",
				Tags:      "t",
				ClearTag:  "c",
				Like:      "l",
				Comments:  "m",
				Liked:     "L",
				Profile:   "p",
				Login:     "i",
				Refresh:   "r",
				OpenMedia: "o",
				NextKind:  "tab",
				PrevKind:  "shift+tab",
				Back:      "esc",
				Help:      "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(homeDir, ".aihub", "aihub.log"),
		},
		Features: FeatureConfig{
			Comments: true,
			Likes:    true,
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// envKeys are bound explicitly so AIHUB_API_BASE_URL and friends reach
// Unmarshal even when no config file mentions them.
var envKeys = []string{
	"api.base_url",
	"api.timeout",
	"api.retries",
	"database.path",
	"database.search_index",
	"cache.ttl",
	"cache.persist",
	"log.level",
	"log.path",
	"features.comments",
	"features.likes",
}

// Load reads configPath, or config.toml from ~/.config/aihub and the
// working directory when configPath is empty. A .env file in the working
// directory is loaded first; AIHUB_* variables override file values.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	cfg := defaultConfig()
	// Defaults are set per leaf so an env override or a partial file section
	// does not shadow sibling keys.
	for key, value := range map[string]any{
		"api.base_url":          cfg.API.BaseURL,
		"api.timeout":           cfg.API.Timeout,
		"api.user_agent":        cfg.API.UserAgent,
		"api.retries":           cfg.API.Retries,
		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout,
		"database.search_index": cfg.Database.SearchIndex,
		"cache.ttl":             cfg.Cache.TTL,
		"cache.persist":         cfg.Cache.Persist,
		"log.level":             cfg.Log.Level,
		"log.path":              cfg.Log.Path,
		"features.comments":     cfg.Features.Comments,
		"features.likes":        cfg.Features.Likes,
	} {
		v.SetDefault(key, value)
	}
	for key, section := range map[string]any{
		"ui":    cfg.UI,
		"media": cfg.Media,
		"keys":  cfg.Keys,
	} {
		m := map[string]any{}
		if err := mapstructure.Decode(section, &m); err != nil {
			return nil, fmt.Errorf("encoding %s defaults: %w", key, err)
		}
		setLeafDefaults(v, key, m)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setLeafDefaults registers one default per leaf so a file that sets a single
// nested key keeps the defaults of its siblings.
func setLeafDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := prefix + "." + k
		if sub, ok := val.(map[string]any); ok {
			setLeafDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Validate rejects settings the client cannot work with.
func (c *Config) Validate() error {
	if err := validation.ValidateBaseURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative, got %d", c.API.Retries)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

// DefaultDir is where the config file lives unless overridden.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "aihub")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings keep the TOML readable.
	v.Set("api", map[string]interface{}{
		"base_url":   config.API.BaseURL,
		"timeout":    config.API.Timeout.String(),
		"user_agent": config.API.UserAgent,
		"retries":    config.API.Retries,
	})
	v.Set("database", map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	})
	v.Set("cache", map[string]interface{}{
		"ttl":     config.Cache.TTL.String(),
		"persist": config.Cache.Persist,
	})
	// Remaining sections go through mapstructure so the file uses the same
	// snake_case keys Load expects.
	for key, section := range map[string]any{
		"ui":       config.UI,
		"media":    config.Media,
		"keys":     config.Keys,
		"log":      config.Log,
		"features": config.Features,
	} {
		m := map[string]any{}
		if err := mapstructure.Decode(section, &m); err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		v.Set(key, m)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
