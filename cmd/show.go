package cmd

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/db"
	"github.com/tranvictor/addrscout/service"
	"github.com/tranvictor/addrscout/ui"
)

var (
	ShowFilter string
	ShowShort  bool
	ShowJSON   bool
)

// renderList prints items as a table, or as JSON lines on the UI's writer
// with --json.
func renderList(u ui.UI, host string, items []common.AddressItem) error {
	if !ShowJSON {
		ui.RenderAddressItems(u, host, items, ShowShort)
		return nil
	}
	enc := json.NewEncoder(u.Writer())
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show [host]",
	Short: "Show the addresses recorded for a site",
	Long: `Show the addresses recorded for a site, named ones first. No lookups are
made; run "addrscout resolve" to fill in missing names.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host := common.HostFromURL(args[0])
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			items, err := app.Dispatcher.DisplayList(ctx, host)
			if err != nil {
				return err
			}
			if ShowFilter != "" {
				items, _ = db.Filter(items, ShowFilter)
			}
			return renderList(u, host, items)
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [host]",
	Short: "Look up names for a site's unresolved addresses and show the list",
	Long: `Look up a name for every address of the site that has none yet. Names
already in the cache are reused; the rest are fetched in paced batches with
the strategy chosen by --strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host := common.HostFromURL(args[0])
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			stop := u.Spinner("Resolving names for " + host + "...")
			items, err := app.Dispatcher.ResolveNames(ctx, host)
			stop()
			if err != nil {
				return err
			}
			return renderList(u, host, items)
		})
	},
}

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List the sites addresses were recorded for",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			hosts, err := app.Dispatcher.Hosts(ctx)
			if err != nil {
				return err
			}
			if len(hosts) == 0 {
				u.Warn("No sites recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(hosts))
			for _, host := range hosts {
				items, err := app.Origins.Get(ctx, host)
				if err != nil {
					return err
				}
				named := 0
				for _, item := range items {
					if item.HasName() {
						named++
					}
				}
				rows = append(rows, []string{host, strconv.Itoa(len(items)), strconv.Itoa(named)})
			}
			u.Table([]string{"Site", "Addresses", "Named"}, rows)
			return nil
		})
	},
}

func init() {
	showCmd.Flags().StringVarP(&ShowFilter, "filter", "q", "", "only show addresses whose name or address fuzzily matches.")
	for _, c := range []*cobra.Command{showCmd, resolveCmd} {
		c.Flags().BoolVar(&ShowShort, "short", false, "abbreviate addresses to 0x1234...abcd.")
		c.Flags().BoolVar(&ShowJSON, "json", false, "print one JSON object per address instead of a table.")
	}
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(hostsCmd)
}
