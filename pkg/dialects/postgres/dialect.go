package postgres

import (
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect.
var Postgres = dialect.New(Config).Build()
