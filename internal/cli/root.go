// Package cli provides the command-line interface for leapfmt.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapfmt/internal/cli/commands"
	"github.com/leapstack-labs/leapfmt/internal/cli/config"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	_ "github.com/leapstack-labs/leapfmt/pkg/dialects/plpgsql" // register dialects
	_ "github.com/leapstack-labs/leapfmt/pkg/dialects/postgres"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leapfmt",
		Short: "leapfmt - SQL and PL/pgSQL formatter",
		Long: `leapfmt formats PostgreSQL scripts, including the PL/pgSQL bodies of DO
blocks and functions, to fit a line width.

Options come from leapfmt.yaml (searched upward from the working
directory), LEAPFMT_* environment variables and flags, in increasing order
of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = config.WithConfig(config.WithLogger(ctx, logger), cfg)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: nearest leapfmt.yaml)")
	flags.String("dialect", "", "SQL dialect (postgres|plpgsql)")
	flags.Int("line-width", 0, "Maximum line width")
	flags.Int("indent", 0, "Indent width in columns")
	flags.String("tabs", "", "Tab policy (none|leading|all)")
	flags.String("keyword-case", "", "Keyword letter case (unchanged|upper|lower|capitalize)")
	flags.String("function-case", "", "Function name letter case (unchanged|upper|lower|capitalize)")
	flags.String("blank-lines", "", "Blank line policy (remove|collapse|preserve)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", "", "Output format (auto|text|json)")

	completions := map[string][]string{
		"tabs":          {string(core.TabsNone), string(core.TabsLeading), string(core.TabsAll)},
		"keyword-case":  letterCases(),
		"function-case": letterCases(),
		"blank-lines":   {string(core.BlankLinesRemove), string(core.BlankLinesCollapse), string(core.BlankLinesPreserve)},
		"output":        {config.OutputAuto, config.OutputText, config.OutputJSON},
		"dialect":       {"postgres", "plpgsql"},
	}
	for name, values := range completions {
		_ = rootCmd.RegisterFlagCompletionFunc(name, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		})
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewFormatCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewDialectsCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func letterCases() []string {
	return []string{string(core.CaseUnchanged), string(core.CaseUpper), string(core.CaseLower), string(core.CaseCapitalize)}
}

// newLogger logs warnings to w, and debug events too when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapfmt.

To load completions:

Bash:
  $ source <(leapfmt completion bash)

Zsh:
  $ leapfmt completion zsh > "${fpath[1]}/_leapfmt"

Fish:
  $ leapfmt completion fish | source

PowerShell:
  PS> leapfmt completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
