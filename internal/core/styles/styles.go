// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports. Rebuilt by SetTheme.
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	TextMutedStyle lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style

	TaskTitleStyle      lipgloss.Style
	TaskDoneStyle       lipgloss.Style
	TaskCursorStyle     lipgloss.Style
	TaskDetailStyle     lipgloss.Style
	CheckboxDoneStyle   lipgloss.Style
	CheckboxActiveStyle lipgloss.Style

	FilterSelectedStyle lipgloss.Style
	FilterNormalStyle   lipgloss.Style

	InputFocusedStyle lipgloss.Style
	InputBlurredStyle lipgloss.Style

	PanelStyle lipgloss.Style

	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	SubtitleStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	TextMutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().
		Foreground(p.Success)

	TaskTitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	TaskDoneStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Strikethrough(true)
	TaskCursorStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	TaskDetailStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		PaddingLeft(6)
	CheckboxDoneStyle = lipgloss.NewStyle().
		Foreground(p.Success)
	CheckboxActiveStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	FilterSelectedStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Surface).
		Foreground(p.Primary).
		Bold(true)
	FilterNormalStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(p.Muted)

	InputFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	InputBlurredStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Muted).
		PaddingLeft(1)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)

	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	ToastInfoStyle = toast.BorderForeground(p.Primary)
	ToastWarningStyle = toast.BorderForeground(p.Warning)
	ToastErrorStyle = toast.BorderForeground(p.Error)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
// Task descriptions are short, so document margins are dropped.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := hexPtr(CurrentPalette.Foreground)
	primary := hexPtr(CurrentPalette.Primary)
	secondary := hexPtr(CurrentPalette.Secondary)
	muted := hexPtr(CurrentPalette.Muted)

	var zero uint
	cfg.Document.Margin = &zero
	cfg.Document.Color = muted
	cfg.Paragraph.Color = muted

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary
	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}
