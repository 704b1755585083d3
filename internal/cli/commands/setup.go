// Package commands implements the leapfmt subcommands.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapfmt/internal/cli/config"
	"github.com/leapstack-labs/leapfmt/internal/cli/output"
	"github.com/leapstack-labs/leapfmt/pkg/format"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config and logger stored on the command
// context by the root command, and a renderer for its output streams.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// FormatOptions returns the options every formatting run uses.
func (c *CommandContext) FormatOptions(attrs ...any) []format.Option {
	return []format.Option{format.WithLogger(c.Logger.With(attrs...))}
}
