package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/aihub/internal/config"
)

const AppName = "aihub"

// LogoLines is the block-letter logo shown in banners.
var LogoLines = []string{
	" ▄▄▄▄  ▄▄ ▄▄   ▄▄ ▄▄   ▄▄ ▄▄▄▄▄ ",
	"██▀▀██ ██ ██   ██ ██   ██ ██  ██",
	"██▄▄██ ██ ███████ ██   ██ █████ ",
	"██  ██ ██ ██   ██ ██   ██ ██  ██",
	"██  ██ ██ ██   ██  ▀███▀  █████ ",
}

const CompactLogo = `aihub ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#7C3AED"),
	lipgloss.Color("#A78BFA"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#7C3AED"),
}

var (
	PrimaryColor   = lipgloss.Color("#7C3AED") // Violet
	SecondaryColor = lipgloss.Color("#4ECDC4") // Teal
	AccentColor    = lipgloss.Color("#95E1D3") // Mint

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	LikedColor   = lipgloss.Color("#F472B6")
	WarnColor    = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

var (
	LogoStyle           lipgloss.Style
	TitleStyle          lipgloss.Style
	HeaderStyle         lipgloss.Style
	StatusBarStyle      lipgloss.Style
	LikedItemStyle      lipgloss.Style
	SelectedTagStyle    lipgloss.Style
	TabStyle            lipgloss.Style
	ActiveTabStyle      lipgloss.Style
	CommentAuthorStyle  lipgloss.Style
	HelpStyle           lipgloss.Style
	TimeStyle           lipgloss.Style
	ModalTextStyle      lipgloss.Style
	ModalHighlightStyle lipgloss.Style
	ErrorMessageStyle   lipgloss.Style
	SeparatorStyle      lipgloss.Style
	StatusInfoStyle     lipgloss.Style
	StatusSuccessStyle  lipgloss.Style
	StatusWarnStyle     lipgloss.Style
	StatusErrorStyle    lipgloss.Style
	EmptyStyle          = lipgloss.NewStyle()
)

func init() {
	buildStyles()
}

// ApplyColors replaces the palette with the configured colors and rebuilds
// every style. Empty entries keep the built-in color.
func ApplyColors(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	LikedItemStyle = lipgloss.NewStyle().Foreground(LikedColor).Bold(true)
	SelectedTagStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	TabStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 2)
	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true).
		Padding(0, 2)
	CommentAuthorStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	TimeStyle = lipgloss.NewStyle().Foreground(MutedColor).Faint(true)
	ModalTextStyle = lipgloss.NewStyle().Foreground(TextColor)
	ModalHighlightStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(WarnColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	if height < 0 {
		height = 0
	}
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Press tab to browse documents, news and podcasts")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Banner is the boxed logo printed by the version command.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "    AI Tool Hub"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderChars := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}
	boxed := lipgloss.NewStyle().
		Border(borderChars).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	center := lipgloss.NewStyle().Width(70).Align(lipgloss.Center)
	separator := lipgloss.NewStyle().Foreground(AccentColor).Render("◆ ◇ ◆ ◇ ◆")
	return lipgloss.JoinVertical(lipgloss.Top,
		center.Render(boxed),
		center.MarginBottom(1).Render(separator))
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
