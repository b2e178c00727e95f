// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tranvictor/addrscout/config"
	"github.com/tranvictor/addrscout/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "addrscout",
	Short: "Collect Ethereum addresses from the scripts web pages load and name them",
	Long: fmt.Sprintf(`addrscout watches the script and JSON resources web pages load, pulls every
Ethereum address out of them and keeps a deduplicated list per site.

It then looks up a human readable name for each address on Etherscan and
caches the answer, so no address is ever looked up twice.

Names are looked up in one of two ways:

	1. scrape (default): reads the title of the Etherscan address page.
	2. api: asks the Etherscan contract source API for the contract name.
	This needs an API key.

Lookups are paced in small batches to stay within Etherscan's rate limits.

You can point addrscout at other explorers or give it your API key by
setting the following env vars:
	1. API key: %s
	2. API base url: %s
	3. Explorer site url: %s
	4. Data directory: %s

Resources reach addrscout either through the "scan" commands or through
the local HTTP API started by "addrscout serve".`,
		config.ETHERSCAN_API_KEY_VAR,
		config.ETHERSCAN_API_URL_VAR,
		config.ETHERSCAN_SITE_URL_VAR,
		config.DATA_DIR_VAR,
	),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Current.ApplyEnv(cmd.Flags().Changed("data-dir"))
		return config.Current.Validate()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.NewTerminalUI().Error("%s", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&config.Current.Store, "store", config.Current.Store, "storage backend. Valid values: \"file\", \"badger\".")
	flags.StringVar(&config.Current.DataDir, "data-dir", config.Current.DataDir, "directory holding the store and the name index.")
	flags.StringVar(&config.Current.Strategy, "strategy", config.Current.Strategy, "name lookup strategy. Valid values: \"scrape\", \"api\".")
	flags.IntVar(&config.Current.MaxPerOrigin, "max-per-origin", 0, "maximum addresses kept per site, 0 means unlimited.")
	flags.StringVar(&config.Current.LogLevel, "log-level", config.Current.LogLevel, "log level: debug, info, warn or error.")
	flags.IntVar(&config.Current.LRUSize, "lru-size", config.Current.LRUSize, "names kept in memory in front of the store, 0 disables it.")
	flags.IntVar(&config.Current.Workers, "workers", config.Current.Workers, "number of pipeline workers.")
	flags.IntVar(&config.Current.BatchSize, "batch-size", 0, "lookups per batch, 0 keeps the strategy default.")
	flags.IntVar(&config.Current.BatchDelayMs, "batch-delay-ms", 0, "pause between lookup batches in milliseconds, 0 keeps the strategy default.")
}
