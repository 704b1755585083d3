package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapfmt/internal/cli/output"
	"github.com/leapstack-labs/leapfmt/internal/sqlfiles"
	"github.com/leapstack-labs/leapfmt/pkg/format"
	"github.com/leapstack-labs/leapfmt/pkg/verify"
)

// ErrUnformatted is returned by --check when some input would change.
var ErrUnformatted = errors.New("some files are not formatted")

// ErrNoInput is returned when there are no paths and stdin is a terminal.
var ErrNoInput = errors.New("no input: pass SQL files or directories, or pipe SQL on stdin")

// stdinName names standard input in messages and diffs.
const stdinName = "<stdin>"

// FormatOptions holds options for the format command.
type FormatOptions struct {
	Write  bool // Rewrite files in place
	Check  bool // Report files that would change
	Diff   bool // Print unified diffs
	Verify bool // Check the result against the input
	Jobs   int  // Files formatted in parallel
}

// fileResult is the outcome of formatting one input.
type fileResult struct {
	File      *sqlfiles.File
	Formatted string
}

func (r *fileResult) Changed() bool { return r.Formatted != r.File.Content }

// checkReport is the JSON form of a --check run.
type checkReport struct {
	Files     int      `json:"files"`
	Unchanged int      `json:"unchanged"`
	Changed   []string `json:"changed"`
}

// NewFormatCommand creates the format command.
func NewFormatCommand() *cobra.Command {
	opts := &FormatOptions{}
	cmd := &cobra.Command{
		Use:     "format [paths...]",
		Aliases: []string{"fmt"},
		Short:   "Format SQL files",
		Long: `Format SQL and PL/pgSQL files.

Paths may be files or directories; directories are searched recursively
for *.sql files. With no paths, or the path "-", SQL is read from stdin.
Formatted text goes to stdout unless --write, --check or --diff is given.`,
		Example: `  # Format a file to stdout
  leapfmt format schema.sql

  # Rewrite every file below migrations/
  leapfmt format -w migrations/

  # Fail in CI when something is not formatted
  leapfmt format --check --diff .

  # Format from a pipe with a narrower width
  pg_dump --schema-only mydb | leapfmt format --line-width 80`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write result to source files instead of stdout")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Exit with status 1 if any file would change")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "Print a unified diff of the changes")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "Check that formatting kept every token")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "Number of files formatted in parallel")

	return cmd
}

func runFormat(cmd *cobra.Command, args []string, opts *FormatOptions) error {
	cc := NewCommandContext(cmd)

	if len(args) == 0 || len(args) == 1 && args[0] == "-" {
		return formatStdin(cmd, cc, opts)
	}

	paths, err := sqlfiles.Discover(args...)
	if err != nil {
		return err
	}
	results, err := formatFiles(cmd, cc, paths, opts)
	if err != nil {
		return err
	}
	return report(cc, results, opts)
}

func formatStdin(cmd *cobra.Command, cc *CommandContext, opts *FormatOptions) error {
	in := cmd.InOrStdin()
	if output.IsTerminal(in) {
		return ErrNoInput
	}
	if opts.Write {
		return errors.New("--write needs file arguments")
	}

	// Plain formatting streams statement by statement
	if !opts.Check && !opts.Diff && !opts.Verify {
		return format.Write(cc.Renderer.Out(), in, &cc.Cfg.FormatConfig, cc.FormatOptions()...)
	}

	src, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	res := &fileResult{File: &sqlfiles.File{Path: stdinName, Content: string(src)}}
	res.Formatted = format.String(res.File.Content, &cc.Cfg.FormatConfig, cc.FormatOptions()...)
	if opts.Verify {
		if err := verify.Equivalent(res.File.Content, res.Formatted); err != nil {
			return fmt.Errorf("%s: %w", stdinName, err)
		}
	}
	return report(cc, []*fileResult{res}, opts)
}

// formatFiles formats paths in parallel. Results keep the order of paths.
func formatFiles(cmd *cobra.Command, cc *CommandContext, paths []string, opts *FormatOptions) ([]*fileResult, error) {
	results := make([]*fileResult, len(paths))

	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(max(opts.Jobs, 1))
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := sqlfiles.Read(path)
			if err != nil {
				return err
			}
			formatted := format.String(f.Content, &cc.Cfg.FormatConfig, cc.FormatOptions("file", path)...)
			if opts.Verify {
				if err := verify.Equivalent(f.Content, formatted); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			results[i] = &fileResult{File: f, Formatted: formatted}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// report writes results the way opts ask for.
func report(cc *CommandContext, results []*fileResult, opts *FormatOptions) error {
	r := cc.Renderer

	if !opts.Write && !opts.Check && !opts.Diff {
		for _, res := range results {
			r.Printf("%s", res.Formatted)
		}
		return nil
	}

	var changed []string
	for _, res := range results {
		if !res.Changed() {
			continue
		}
		changed = append(changed, res.File.Path)

		if opts.Diff {
			if err := r.Diff(res.File.Path, res.File.Content, res.Formatted); err != nil {
				return err
			}
		}
		if opts.Write {
			if _, err := res.File.WriteBack(res.Formatted); err != nil {
				return err
			}
			cc.Logger.Info("formatted", "file", res.File.Path)
		}
	}

	if !opts.Check {
		return nil
	}
	if r.Mode() == output.ModeJSON {
		if err := r.JSON(checkReport{Files: len(results), Unchanged: len(results) - len(changed), Changed: nonNil(changed)}); err != nil {
			return err
		}
	} else if len(changed) > 0 {
		rows := make([][]string, len(changed))
		for i, path := range changed {
			rows[i] = []string{path, "would reformat"}
		}
		r.Table([]string{"File", "Status"}, rows)
		r.Println(r.Styles().Muted.Render(fmt.Sprintf("%d of %d files would be reformatted", len(changed), len(results))))
	} else {
		r.Println(r.Styles().Success.Render(fmt.Sprintf("%d %s already formatted", len(results), plural(len(results), "file", "files"))))
	}
	if len(changed) > 0 {
		return ErrUnformatted
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
