package config

import (
	"fmt"
	"slices"

	intconfig "github.com/leapstack-labs/leapfmt/internal/config"
)

// Validate checks the formatter options and the CLI-only keys.
func (c *Config) Validate() error {
	if !slices.Contains([]string{OutputAuto, OutputText, OutputJSON}, c.Output) {
		return fmt.Errorf("%w: output must be one of auto, text, json (got %q)", intconfig.ErrInvalidOption, c.Output)
	}
	return intconfig.Validate(&c.FormatConfig)
}
