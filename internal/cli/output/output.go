// Package output renders command results for terminals and pipes.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	color  bool
	styles *Styles
}

// NewRenderer creates a renderer. ModeAuto resolves to text; color is used
// only when out is a terminal and NO_COLOR is unset.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" || mode == ModeAuto {
		mode = ModeText
	}
	color := IsTerminal(out) && !termenv.EnvNoColor()
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		color:  color,
		styles: NewStyles(out, color),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Styles returns the styles for text output.
func (r *Renderer) Styles() *Styles { return r.styles }

// Out returns the writer results go to.
func (r *Renderer) Out() io.Writer { return r.out }

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Warnf writes a formatted line to the error output.
func (r *Renderer) Warnf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.errOut, r.styles.Warning.Render("warning:")+" "+format+"\n", a...)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under header as a box-drawn table.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, cells := range rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
}
