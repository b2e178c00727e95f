package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/addrscout/service"
	"github.com/tranvictor/addrscout/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search every resolved name",
	Long:  `Search the names resolved so far, across all sites. Close spellings match too.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			results, scores := app.Index.Search(query)
			if len(results) == 0 {
				u.Warn("No names match '%s'.", query)
				return nil
			}
			rows := make([][]string, 0, len(results))
			for i, res := range results {
				rows = append(rows, []string{res.Address, res.Desc, strconv.Itoa(scores[i])})
			}
			u.Table([]string{"Address", "Name", "Score"}, rows)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
