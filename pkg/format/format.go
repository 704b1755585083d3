// Package format drives the formatting pipeline: scanner, interpreter and
// layout, one statement at a time.
//
// Statements yields the formatted file as a lazy sequence of pieces. Each
// piece is a formatted statement ending in one line break, a run of blank
// lines kept by the blank-line policy, or a comment line belonging to the
// next statement. Concatenating the pieces gives the formatted file.
//
//	for piece := range format.Statements(r, cfg) {
//	    io.WriteString(w, piece)
//	}
//
// Nothing here fails on bad input. Malformed text is passed through and
// reported to the logger.
package format

import (
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/plpgsql"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/postgres"
	"github.com/leapstack-labs/leapfmt/pkg/layout"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// Option configures a formatting run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger diagnostics go to. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Statements formats the text read from r with cfg. Reading stops when the
// caller stops pulling. cfg must not change while the sequence is in use.
func Statements(r io.Reader, cfg *core.FormatConfig, opts ...Option) iter.Seq[string] {
	return func(yield func(string) bool) {
		o := newOptions(opts)
		top := topDialect(cfg.Dialect, o.logger)
		sopts := scanner.Options{Dialect: top, Body: plpgsql.PLpgSQL, Terminator: cfg.Terminator}

		arena := scanner.NewArena(scanner.New(r, sopts))
		pr := &printer{
			cfg:      cfg,
			renderer: layout.NewRenderer(cfg, o.logger),
			tabs:     newTabber(cfg, sopts),
			first:    true,
		}
		p := syntax.NewParser(top, plpgsql.PLpgSQL, o.logger)

		for c := arena.Start(); ; {
			st, next := p.Statement(c)
			if st == nil {
				return
			}
			if st.Node != nil {
				o.logger.Debug("statement",
					slog.String("kind", st.Node.Kind().String()),
					slog.Int("line", st.Node.Pos().Line))
			}
			for _, piece := range pr.statement(st) {
				if !yield(piece) {
					return
				}
			}
			c = next
			arena.Release(c)
		}
	}
}

// String formats src and returns the whole result.
func String(src string, cfg *core.FormatConfig, opts ...Option) string {
	var b strings.Builder
	for piece := range Statements(strings.NewReader(src), cfg, opts...) {
		b.WriteString(piece)
	}
	return b.String()
}

// Write formats r into w. Only write errors are returned.
func Write(w io.Writer, r io.Reader, cfg *core.FormatConfig, opts ...Option) error {
	for piece := range Statements(r, cfg, opts...) {
		if _, err := io.WriteString(w, piece); err != nil {
			return err
		}
	}
	return nil
}

// topDialect resolves the configured dialect. An unknown name falls back to
// PostgreSQL; configuration is validated before it gets here.
func topDialect(name string, logger *slog.Logger) *dialect.Dialect {
	d, err := dialect.Lookup(name)
	if err != nil {
		logger.Warn("using postgres dialect", slog.Any("error", err))
		return postgres.Postgres
	}
	return d
}
