package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the text styles used by the CLI. Without color every style
// returns its input unchanged.
type Styles struct {
	Header   Style
	Muted    Style
	Success  Style
	Warning  Style
	Error    Style
	Added    Style
	Removed  Style
	HunkHead Style
}

// Style renders single-line text.
type Style struct {
	style lipgloss.Style
	plain bool
}

// Render styles s.
func (s Style) Render(text string) string {
	if s.plain {
		return text
	}
	return s.style.Render(text)
}

// NewStyles creates styles for w.
func NewStyles(w io.Writer, color bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	if !color {
		lr.SetColorProfile(termenv.Ascii)
	}
	mk := func(st lipgloss.Style) Style {
		return Style{style: st, plain: !color}
	}
	return &Styles{
		Header:   mk(lr.NewStyle().Bold(true)),
		Muted:    mk(lr.NewStyle().Foreground(lipgloss.Color("8"))),
		Success:  mk(lr.NewStyle().Foreground(lipgloss.Color("2"))),
		Warning:  mk(lr.NewStyle().Foreground(lipgloss.Color("3"))),
		Error:    mk(lr.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)),
		Added:    mk(lr.NewStyle().Foreground(lipgloss.Color("2"))),
		Removed:  mk(lr.NewStyle().Foreground(lipgloss.Color("1"))),
		HunkHead: mk(lr.NewStyle().Foreground(lipgloss.Color("6"))),
	}
}
