package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapfmt/internal/cli/output"
	"github.com/leapstack-labs/leapfmt/internal/server"
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the SQL dialects leapfmt understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer

			var infos []server.DialectInfo
			for _, name := range dialect.List() {
				if d, ok := dialect.Get(name); ok {
					infos = append(infos, server.DialectInfo{Name: d.Name, Procedural: d.Procedural(), Keywords: len(d.Keywords())})
				}
			}

			if r.Mode() == output.ModeJSON {
				return r.JSON(infos)
			}
			rows := make([][]string, len(infos))
			for i, d := range infos {
				procedural := "no"
				if d.Procedural {
					procedural = "yes"
				}
				rows[i] = []string{d.Name, procedural, strconv.Itoa(d.Keywords)}
			}
			r.Table([]string{"Name", "Procedural", "Keywords"}, rows)
			return nil
		},
	}
}
