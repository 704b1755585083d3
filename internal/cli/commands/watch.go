package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapfmt/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Reformat SQL files as they are saved",
		Long: `Watch a directory tree and rewrite each *.sql file in place after it
changes. Hidden directories are skipped. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watch.New(dir, &cc.Cfg.FormatConfig, cc.Logger)
			w.OnEvent = func(ev watch.Event) {
				switch {
				case ev.Err != nil:
					cc.Renderer.Warnf("%s: %v", ev.Path, ev.Err)
				case ev.Changed:
					cc.Renderer.Println(cc.Renderer.Styles().Success.Render("formatted") + " " + ev.Path)
				}
			}
			return w.Run(ctx)
		},
	}
	return cmd
}
