// Package config loads the leapfmt CLI configuration.
//
// Values are layered with koanf, lowest first: built-in defaults, the
// leapfmt.yaml file, LEAPFMT_* environment variables and command-line
// flags. The formatter options sit at the top level of the file, next to
// the CLI-only keys.
package config

import (
	"github.com/leapstack-labs/leapfmt/pkg/core"
)

// Config holds the CLI configuration.
type Config struct {
	core.FormatConfig `koanf:",squash"`

	Verbose bool   `koanf:"verbose"`
	Output  string `koanf:"output"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Output modes.
const (
	OutputAuto = "auto" // text on a terminal, plain otherwise
	OutputText = "text"
	OutputJSON = "json"
)

// DefaultOutput is the output mode used when none is configured.
const DefaultOutput = OutputAuto

// EnvPrefix prefixes environment variables read by the loader. Nested keys
// are separated by a double underscore: LEAPFMT_INDENT__WIDTH=2.
const EnvPrefix = "LEAPFMT_"
