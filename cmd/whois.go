package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/extractor"
	"github.com/tranvictor/addrscout/service"
	"github.com/tranvictor/addrscout/ui"
)

// scanForAddresses returns the valid addresses found in para, in order.
func scanForAddresses(para string) []common.AddressItem {
	items := []common.AddressItem{}
	for _, candidate := range extractor.Candidates(para) {
		if addr, ok := common.ParseAddress(candidate); ok && !common.IsZeroAddress(addr) {
			items = append(items, common.NewAddressItem(addr))
		}
	}
	return items
}

var whoisCmd = &cobra.Command{
	Use:   "whois",
	Short: "Show name of one or multiple addresses",
	Long: `Show the name of every address in the params. Cached names are used when
present; the rest are looked up and cached. No site list is changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		items := scanForAddresses(strings.Join(args, " "))
		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			if len(items) == 0 {
				u.Warn("Couldn't find any addresses in the params")
				return nil
			}
			resolved, err := app.Resolver.ResolveItems(ctx, items)
			if err != nil {
				return err
			}
			for _, item := range resolved {
				u.Info("%s: %s", item.Address.Hex(), u.Style(ui.NameText(item)))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(whoisCmd)
}
