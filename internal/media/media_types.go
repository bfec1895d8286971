package media

import (
	_ "embed"
	"net/url"
	"path"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pders01/aihub/internal/content"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Type int

const (
	TypeVideo Type = iota
	TypeImage
	TypeAudio
	TypePDF
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeImage:
		return "image"
	case TypeAudio:
		return "audio"
	case TypePDF:
		return "pdf"
	default:
		return "link"
	}
}

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Video     TypeConfig                `toml:"video"`
	Audio     TypeConfig                `toml:"audio"`
	Image     TypeConfig                `toml:"image"`
	PDF       TypeConfig                `toml:"pdf"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var cfg TypesConfig
	if _, err := toml.Decode(string(mediaTypesTOML), &cfg); err != nil {
		return nil, err
	}
	return &TypeDetector{config: &cfg}, nil
}

// DetectType classifies a link by its file extension, then by known hosting
// patterns.
func (d *TypeDetector) DetectType(link string) Type {
	lower := strings.ToLower(link)

	p := lower
	if u, err := url.Parse(lower); err == nil {
		p = u.Path
	}
	if ext := strings.TrimPrefix(path.Ext(p), "."); ext != "" {
		for _, c := range d.ordered() {
			if contains(c.cfg.Extensions, ext) {
				return c.typ
			}
		}
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		for _, c := range d.ordered() {
			for _, pattern := range c.cfg.URLPatterns {
				if strings.Contains(lower, pattern) {
					return c.typ
				}
			}
		}
	}
	return TypeUnknown
}

// DetectItem classifies the primary link of item. Podcast episodes and
// documents carry enough metadata to decide when the URL alone does not.
func (d *TypeDetector) DetectItem(item content.Item) Type {
	t := d.DetectType(content.PrimaryURL(item))
	if t != TypeUnknown {
		return t
	}
	switch it := item.(type) {
	case *content.Podcast:
		return TypeAudio
	case *content.Document:
		if strings.EqualFold(it.FileType, "pdf") {
			return TypePDF
		}
	}
	return TypeUnknown
}

type typedConfig struct {
	typ Type
	cfg TypeConfig
}

func (d *TypeDetector) ordered() []typedConfig {
	return []typedConfig{
		{TypeVideo, d.config.Video},
		{TypeAudio, d.config.Audio},
		{TypeImage, d.config.Image},
		{TypePDF, d.config.PDF},
	}
}

func (d *TypeDetector) GetDefaultOpener() string {
	if pc, ok := d.config.Platforms[runtime.GOOS]; ok {
		return pc.DefaultOpener
	}
	if pc, ok := d.config.Platforms["fallback"]; ok {
		return pc.DefaultOpener
	}
	return "open"
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
