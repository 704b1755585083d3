// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import "github.com/leapstack-labs/leapfmt/pkg/dialect"

// Config is the PostgreSQL dialect configuration.
// Plain SQL only tracks CASE ... END as a block.
var Config = &dialect.Config{
	Name: "postgres",

	Keywords: []string{
		// Queries
		"select", "from", "where", "group", "by", "having", "order", "limit",
		"offset", "fetch", "first", "next", "for", "rows", "row", "only", "with",
		"recursive", "as", "on", "join", "inner", "left", "right", "full",
		"outer", "cross", "natural", "using", "union", "intersect", "except",
		"all", "distinct", "lateral", "window", "over", "partition", "range",
		"groups", "filter", "within", "asc", "desc", "nulls", "last",
		"materialized",

		// Expressions
		"and", "or", "not", "in", "is", "null", "true", "false", "like",
		"ilike", "similar", "between", "case", "when", "then", "else", "end",
		"exists", "any", "some", "cast", "array", "interval", "collate",
		"current_date", "current_time", "current_timestamp", "current_user",
		"session_user", "localtime", "localtimestamp", "escape", "isnull",
		"notnull", "symmetric",

		// DML
		"insert", "into", "values", "update", "set", "delete", "returning",
		"conflict", "nothing", "do", "default", "merge", "matched", "truncate",
		"copy",

		// DDL
		"create", "replace", "function", "procedure", "table", "view",
		"temp", "temporary", "unlogged", "if", "drop", "alter", "add",
		"column", "constraint", "primary", "key", "foreign", "references",
		"unique", "check", "index", "cascade", "restrict", "trigger",
		"before", "after", "instead", "each", "execute", "schema", "sequence",
		"extension", "rename", "owner", "to", "grant", "revoke", "deferrable",
		"initially", "deferred", "immediate", "generated", "always", "identity",
		"stored",

		// Routine options
		"language", "returns", "return", "setof", "security", "definer",
		"invoker", "immutable", "stable", "volatile", "strict", "cost",
		"parallel", "safe", "unsafe", "restricted", "leakproof", "called",
		"input", "support", "atomic", "variadic", "inout", "out",

		// Transactions and utility
		"begin", "commit", "rollback", "savepoint", "release", "transaction",
		"analyze", "explain", "vacuum", "lock", "listen", "notify", "show",
		"reset", "discard",
	},

	NotFunctions: []string{
		"in", "as", "values", "and", "or", "not", "exists", "any", "all",
		"some", "using", "over", "filter", "within", "from", "join", "on",
		"where", "returning", "into", "select", "when", "then", "else",
		"case", "by", "with", "union", "intersect", "except", "primary",
		"key", "unique", "check", "references", "default", "language",
		"returns", "set", "like", "ilike", "between", "is", "distinct",
		"partition", "table", "view", "array", "do", "if", "conflict",
		"nothing", "only", "lateral", "rows", "range", "groups", "return",
		"constraint", "foreign", "index", "setof",
	},

	BlockOpeners: []string{"case"},
	BlockClosers: []string{"end"},
}
