package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	intconfig "github.com/leapstack-labs/leapfmt/internal/config"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/format"
	"github.com/leapstack-labs/leapfmt/pkg/verify"
)

const (
	replPrompt     = "leapfmt> "
	replContPrompt = "     ...> "
)

// lineReader is the part of readline the REPL uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Format SQL interactively",
		Long: `Type SQL and get it back formatted. Input is collected until a statement
ends with a semicolon outside any dollar-quoted body.

Commands:
  .width N      set the line width
  .dialect NAME switch dialect
  .help         show this help
  .quit         exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				Stdin:           io.NopCloser(cmd.InOrStdin()),
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize REPL: %w", err)
			}
			defer func() { _ = rl.Close() }()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "leapfmt REPL. Type .help for commands, .quit to exit")
			return replLoop(rl, cmd.OutOrStdout(), cmd.ErrOrStderr(), cc)
		},
	}
}

// historyFile returns the REPL history path, or "" for no history.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "leapfmt")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func replLoop(rl lineReader, out, errOut io.Writer, cc *CommandContext) error {
	cfg := cc.Cfg.FormatConfig

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				quit, err := replCommand(out, &cfg, trimmed)
				if err != nil {
					_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
				}
				if quit {
					break
				}
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		if !statementComplete(buf.String()) {
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		_, _ = io.WriteString(out, format.String(buf.String(), &cfg, format.WithLogger(cc.Logger)))
		buf.Reset()
	}

	// Whatever is left unterminated still gets formatted
	if strings.TrimSpace(buf.String()) != "" {
		_, _ = io.WriteString(out, format.String(buf.String(), &cfg, format.WithLogger(cc.Logger)))
	}
	return nil
}

// statementComplete reports whether src ends with a semicolon that is not
// inside a dollar-quoted body.
func statementComplete(src string) bool {
	toks, err := verify.Tokens(src)
	return err == nil && len(toks) > 0 && toks[len(toks)-1] == ";"
}

// replCommand runs a dot command against cfg.
func replCommand(out io.Writer, cfg *core.FormatConfig, line string) (quit bool, err error) {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true, nil

	case ".help":
		_, _ = fmt.Fprintln(out, `Commands:
  .width N      set the line width
  .dialect NAME switch dialect
  .quit         exit`)

	case ".width":
		if len(parts) != 2 {
			return false, errors.New("usage: .width N")
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return false, fmt.Errorf("invalid width %q", parts[1])
		}
		next := *cfg
		next.LineWidth = n
		if err := intconfig.Validate(&next); err != nil {
			return false, err
		}
		*cfg = next

	case ".dialect":
		if len(parts) != 2 {
			return false, errors.New("usage: .dialect NAME")
		}
		next := *cfg
		next.Dialect = parts[1]
		if err := intconfig.Validate(&next); err != nil {
			return false, err
		}
		*cfg = next

	default:
		return false, fmt.Errorf("unknown command: %s (type .help for commands)", parts[0])
	}
	return false, nil
}
