// Package plpgsql provides the PL/pgSQL procedural dialect. It is used for
// the bodies of DO blocks and functions, and for top-level text when
// configured explicitly.
package plpgsql

import (
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
	"github.com/leapstack-labs/leapfmt/pkg/dialects/postgres"
)

func init() {
	dialect.Register(PLpgSQL)
}

// Name is the registered name of the dialect.
const Name = "plpgsql"

var procedureKeywords = []string{
	"declare", "begin", "end", "if", "elsif", "elseif", "loop", "while",
	"for", "foreach", "exit", "continue", "return", "next", "query",
	"raise", "notice", "warning", "exception", "info", "log", "debug",
	"perform", "get", "diagnostics", "found", "open", "close", "move",
	"cursor", "alias", "constant", "assert", "slice", "reverse", "others",
	"sqlstate", "stacked", "use_variable", "use_column",
}

// PLpgSQL extends the PostgreSQL dialect with block structure: BEGIN, LOOP
// and CASE always open a block, IF only at a statement start, END closes.
var PLpgSQL = dialect.NewDialect(Name).
	Extend(postgres.Postgres).
	Procedural().
	WithKeywords(procedureKeywords...).
	NotFunctions("elsif", "elseif", "while", "loop", "raise", "perform", "exception", "strict", "foreach").
	BlockOpeners("begin", "loop", "case").
	StatementOpeners("if").
	BlockClosers("end").
	Build()
