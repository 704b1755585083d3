package layout

import (
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextWidth returns the display width of s in columns.
func TextWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Result is rendered output: an Item or a MultiLines buffer.
//
// Widths count columns from the start of the output line, so a result
// started at column 0 reports its own extent.
type Result interface {
	Width() int
	Height() int

	// EndsLine reports whether nothing may follow on the last line, as
	// after a line comment.
	EndsLine() bool

	String() string
}

// Item is a single-line run of text.
type Item struct {
	text  string
	width int
	eol   bool
}

// NewItem returns an item for text without line breaks.
func NewItem(text string) Item {
	return Item{text: text, width: TextWidth(text)}
}

// CommentItem returns an item for a comment; endsLine marks line comments.
func CommentItem(text string, endsLine bool) Item {
	return Item{text: text, width: TextWidth(text), eol: endsLine}
}

func (i Item) Width() int      { return i.width }
func (i Item) Height() int     { return 1 }
func (i Item) EndsLine() bool  { return i.eol }
func (i Item) String() string  { return i.text }
func (i Item) blankText() bool { return i.text != "" && strings.TrimSpace(i.text) == "" }

// MultiLines accumulates rendered text line by line.
//
// Columns are absolute: the first line starts at the column given to
// NewMultiLines, later lines carry their own leading spaces. Indentation is
// a base inherited from the enclosing buffer plus a local part. Once String
// has been called the buffer is final and every mutating method panics.
type MultiLines struct {
	lines  []string
	widths []int // display width of each finished line
	eols   []bool

	cur      string
	curWidth int
	trail    int // trailing spaces on cur

	start    int
	maxWidth int
	base     int
	local    int
	eol      bool

	done  bool
	final string
}

// NewMultiLines returns an empty buffer whose first line starts at column
// start and whose new lines are indented to indent.
func NewMultiLines(start, indent int) *MultiLines {
	return &MultiLines{start: start, base: indent}
}

func (m *MultiLines) mutable() {
	if m.done {
		panic("layout: MultiLines mutated after finalization")
	}
}

// Child returns an empty buffer at the output cursor that inherits the
// current indent. A pending line break is taken first.
func (m *MultiLines) Child() *MultiLines {
	m.mutable()
	if m.eol {
		m.AddLine()
	}
	return &MultiLines{start: m.Column(), base: m.Indent()}
}

// Clone returns a deep copy. The copy is not final even when m is.
func (m *MultiLines) Clone() *MultiLines {
	c := *m
	c.lines = slices.Clone(m.lines)
	c.widths = slices.Clone(m.widths)
	c.eols = slices.Clone(m.eols)
	c.done, c.final = false, ""
	return &c
}

// ---------- Queries ----------

// Column returns the column of the output cursor.
func (m *MultiLines) Column() int {
	if len(m.lines) == 0 {
		return m.start + m.curWidth
	}
	return m.curWidth
}

// Indent returns the column new lines are padded to.
func (m *MultiLines) Indent() int { return m.base + m.local }

// Blank reports whether the current line holds nothing but spaces.
func (m *MultiLines) Blank() bool { return m.curWidth == m.trail }

// Empty reports whether nothing has been written yet.
func (m *MultiLines) Empty() bool { return len(m.lines) == 0 && m.curWidth == 0 }

func (m *MultiLines) Width() int     { return max(m.maxWidth, m.lineEnd(len(m.lines), m.curWidth-m.trail)) }
func (m *MultiLines) Height() int    { return len(m.lines) + 1 }
func (m *MultiLines) EndsLine() bool { return m.eol }

// String finalizes the buffer and returns its text. The current line is
// stripped of trailing spaces; the first line carries no padding for the
// start column.
func (m *MultiLines) String() string {
	if !m.done {
		m.done = true
		var b strings.Builder
		for _, l := range m.lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteString(m.cur[:len(m.cur)-m.trail])
		m.final = b.String()
	}
	return m.final
}

// lineEnd converts the width of line i to the column it ends at.
func (m *MultiLines) lineEnd(i, w int) int {
	if i == 0 {
		return m.start + w
	}
	return w
}

// ---------- Mutations ----------

// SetIndent sets the indent to column col and returns the previous one.
func (m *MultiLines) SetIndent(col int) int {
	m.mutable()
	prev := m.Indent()
	m.local = col - m.base
	return prev
}

// AddText appends text. Text with line breaks is added verbatim, see
// AddRaw. After a line comment the text goes to a new line.
func (m *MultiLines) AddText(s string) {
	m.mutable()
	if s == "" {
		return
	}
	if strings.Contains(s, "\n") {
		m.AddRaw(s)
		return
	}
	if m.eol {
		m.AddLine()
	}
	m.append(s)
}

// AddRaw appends text whose line breaks must be kept as they are, such as
// a multi-line literal. Lines after the first are not indented and keep
// their trailing spaces.
func (m *MultiLines) AddRaw(s string) {
	m.mutable()
	if m.eol {
		m.AddLine()
	}
	parts := strings.Split(s, "\n")
	m.append(parts[0])
	for _, p := range parts[1:] {
		m.push(m.cur, m.curWidth, false)
		m.cur, m.curWidth, m.trail = "", 0, 0
		m.append(p)
	}
}

// AddSpace appends one space unless the line already ends with one or has
// no content yet.
func (m *MultiLines) AddSpace() {
	m.mutable()
	if m.eol || m.trail > 0 {
		return
	}
	if m.Blank() && (len(m.lines) > 0 || m.start == 0) {
		return
	}
	m.append(" ")
}

// AddLine ends the current line, stripping its trailing spaces, and pads
// the new line to the indent.
func (m *MultiLines) AddLine() {
	m.mutable()
	m.push(m.cur[:len(m.cur)-m.trail], m.curWidth-m.trail, m.eol)
	m.pad(m.Indent())
	m.eol = false
}

// PositionAt moves the output cursor to column col, padding with spaces or
// starting a new line when the cursor is already past col.
func (m *MultiLines) PositionAt(col int) {
	m.mutable()
	if m.eol {
		m.AddLine()
	}
	switch {
	case m.Blank() && len(m.lines) > 0:
		m.pad(col)
	case m.Column() <= col:
		m.append(strings.Repeat(" ", col-m.Column()))
	default:
		m.AddLine()
		m.pad(col)
	}
}

// PositionAfterLastNonWhitespace moves the cursor back behind the last
// visible character, dropping trailing spaces and blank lines.
func (m *MultiLines) PositionAfterLastNonWhitespace() {
	m.mutable()
	m.trimCur()
	popped := false
	for m.curWidth == 0 && len(m.lines) > 0 {
		n := len(m.lines) - 1
		m.cur, m.curWidth, m.eol = m.lines[n], m.widths[n], m.eols[n]
		m.lines, m.widths, m.eols = m.lines[:n], m.widths[:n], m.eols[:n]
		m.trail = trailingSpaces(m.cur)
		m.trimCur()
		popped = true
	}
	if popped {
		m.recount()
	}
}

// AddEolComment appends a comment that belongs at the end of the current
// content. When a line break is pending with nothing on the new line yet,
// the comment goes back to the end of the previous line and the new line
// keeps its indentation.
func (m *MultiLines) AddEolComment(text string, endsLine bool) {
	m.mutable()
	n := len(m.lines)
	if m.Blank() && n > 0 && !m.eols[n-1] && m.widths[n-1] > 0 {
		col := m.curWidth
		m.cur, m.curWidth, m.eol = m.lines[n-1], m.widths[n-1], false
		m.lines, m.widths, m.eols = m.lines[:n-1], m.widths[:n-1], m.eols[:n-1]
		m.trail = trailingSpaces(m.cur)
		m.recount()
		m.AddSpace()
		m.AddText(text)
		m.eol = m.eol || endsLine
		m.AddLine()
		m.pad(col)
		return
	}
	m.AddSpace()
	m.AddText(text)
	m.eol = m.eol || endsLine
}

// AddResult appends a rendered child. A pure-whitespace item becomes a
// single space; a multi-line child is spliced in, its first line
// continuing the current one. The child is consumed.
func (m *MultiLines) AddResult(r Result) {
	m.mutable()
	switch r := r.(type) {
	case Item:
		if r.blankText() {
			m.AddSpace()
			return
		}
		m.AddText(r.text)
		m.eol = m.eol || r.eol
	case *MultiLines:
		m.splice(r)
	default:
		m.AddText(r.String())
		m.eol = m.eol || r.EndsLine()
	}
}

func (m *MultiLines) splice(r *MultiLines) {
	_ = r.String()
	if len(r.lines) == 0 {
		if r.curWidth-r.trail > 0 {
			m.AddText(r.cur[:len(r.cur)-r.trail])
		}
		m.eol = m.eol || r.eol
		return
	}
	first := r.lines[0]
	if first != "" {
		m.AddText(first)
	} else if m.eol {
		m.AddLine()
	}
	m.eol = m.eol || r.eols[0]
	m.AddLine()
	m.cur, m.curWidth, m.trail = "", 0, 0
	for i := 1; i < len(r.lines); i++ {
		m.push(r.lines[i], r.widths[i], r.eols[i])
	}
	m.append(r.cur)
	m.eol = r.eol
}

// ---------- Internals ----------

func (m *MultiLines) append(s string) {
	m.cur += s
	m.curWidth += TextWidth(s)
	if t := trailingSpaces(s); t == len(s) {
		m.trail += t
	} else {
		m.trail = t
	}
}

func (m *MultiLines) push(line string, w int, eol bool) {
	m.maxWidth = max(m.maxWidth, m.lineEnd(len(m.lines), w))
	m.lines = append(m.lines, line)
	m.widths = append(m.widths, w)
	m.eols = append(m.eols, eol)
}

func (m *MultiLines) pad(col int) {
	m.cur = strings.Repeat(" ", max(col, 0))
	m.curWidth, m.trail = max(col, 0), max(col, 0)
}

func (m *MultiLines) trimCur() {
	m.cur = m.cur[:len(m.cur)-m.trail]
	m.curWidth -= m.trail
	m.trail = 0
}

func (m *MultiLines) recount() {
	m.maxWidth = 0
	for i, w := range m.widths {
		m.maxWidth = max(m.maxWidth, m.lineEnd(i, w))
	}
}

func trailingSpaces(s string) int {
	return len(s) - len(strings.TrimRight(s, " "))
}
