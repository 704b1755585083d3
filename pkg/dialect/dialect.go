// Package dialect describes the SQL dialects the formatter understands.
//
// A dialect tells the scanner which keywords open and close blocks, tells the
// interpreter which words are keywords and which keywords are never function
// calls, and says whether top-level text is procedural code. Concrete
// dialects are registered from pkg/dialects/*/ packages.
package dialect

import (
	"sort"
	"strings"
)

// Config is the pure-data description of a dialect.
type Config struct {
	Name string

	// Procedural dialects interpret top-level statements with block
	// semantics (DECLARE, BEGIN, IF, LOOP ...).
	Procedural bool

	// Keywords are words rendered with the keyword letter-case policy.
	Keywords []string

	// NotFunctions lists keywords that are never function calls, even when
	// immediately followed by an opening parenthesis.
	NotFunctions []string

	// BlockOpeners increment the block depth wherever they appear, except
	// right after END.
	BlockOpeners []string

	// StatementOpeners increment the block depth only at a statement start.
	StatementOpeners []string

	// BlockClosers decrement the block depth.
	BlockClosers []string
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name       string
	procedural bool

	keywords         map[string]struct{}
	notFunctions     map[string]struct{}
	blockOpeners     map[string]struct{}
	statementOpeners map[string]struct{}
	blockClosers     map[string]struct{}
}

// Procedural reports whether top-level text is procedural code.
func (d *Dialect) Procedural() bool {
	return d.procedural
}

// IsKeyword reports whether word is a keyword (case-insensitive).
func (d *Dialect) IsKeyword(word string) bool {
	_, ok := d.keywords[strings.ToLower(word)]
	return ok
}

// IsFunctionName reports whether word may name a function call.
func (d *Dialect) IsFunctionName(word string) bool {
	_, ok := d.notFunctions[strings.ToLower(word)]
	return !ok
}

// OpensBlock reports whether word increments the block depth. atStart tells
// whether the word begins a statement.
func (d *Dialect) OpensBlock(word string, atStart bool) bool {
	w := strings.ToLower(word)
	if _, ok := d.blockOpeners[w]; ok {
		return true
	}
	if !atStart {
		return false
	}
	_, ok := d.statementOpeners[w]
	return ok
}

// ClosesBlock reports whether word decrements the block depth.
func (d *Dialect) ClosesBlock(word string) bool {
	_, ok := d.blockClosers[strings.ToLower(word)]
	return ok
}

// Keywords returns all keywords (sorted).
func (d *Dialect) Keywords() []string {
	out := make([]string, 0, len(d.keywords))
	for kw := range d.keywords {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a builder for an empty dialect.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name:             name,
			keywords:         make(map[string]struct{}),
			notFunctions:     make(map[string]struct{}),
			blockOpeners:     make(map[string]struct{}),
			statementOpeners: make(map[string]struct{}),
			blockClosers:     make(map[string]struct{}),
		},
	}
}

// New creates a builder initialized from a dialect Config.
func New(cfg *Config) *Builder {
	b := NewDialect(cfg.Name)
	b.dialect.procedural = cfg.Procedural
	return b.WithKeywords(cfg.Keywords...).
		NotFunctions(cfg.NotFunctions...).
		BlockOpeners(cfg.BlockOpeners...).
		StatementOpeners(cfg.StatementOpeners...).
		BlockClosers(cfg.BlockClosers...)
}

// Extend copies the word sets of base into the dialect under construction.
func (b *Builder) Extend(base *Dialect) *Builder {
	copySet(b.dialect.keywords, base.keywords)
	copySet(b.dialect.notFunctions, base.notFunctions)
	copySet(b.dialect.blockOpeners, base.blockOpeners)
	copySet(b.dialect.statementOpeners, base.statementOpeners)
	copySet(b.dialect.blockClosers, base.blockClosers)
	return b
}

// Procedural marks the dialect as procedural.
func (b *Builder) Procedural() *Builder {
	b.dialect.procedural = true
	return b
}

// WithKeywords adds keywords.
func (b *Builder) WithKeywords(kws ...string) *Builder {
	addAll(b.dialect.keywords, kws)
	return b
}

// NotFunctions adds keywords that never start a function call.
func (b *Builder) NotFunctions(kws ...string) *Builder {
	addAll(b.dialect.notFunctions, kws)
	return b
}

// BlockOpeners adds words that always open a block.
func (b *Builder) BlockOpeners(kws ...string) *Builder {
	addAll(b.dialect.blockOpeners, kws)
	return b
}

// StatementOpeners adds words that open a block at a statement start.
func (b *Builder) StatementOpeners(kws ...string) *Builder {
	addAll(b.dialect.statementOpeners, kws)
	return b
}

// BlockClosers adds words that close a block.
func (b *Builder) BlockClosers(kws ...string) *Builder {
	addAll(b.dialect.blockClosers, kws)
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}

func addAll(set map[string]struct{}, words []string) {
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
}

func copySet(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}
