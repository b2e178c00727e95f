package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tranvictor/addrscout/config"
	"github.com/tranvictor/addrscout/server"
	"github.com/tranvictor/addrscout/service"
	"github.com/tranvictor/addrscout/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API that receives loaded resources",
	Long: `Run the local HTTP API. A browser extension or proxy posts every loaded
resource to POST /v1/resources; the recorded lists are served under
/v1/origins and resolved names can be searched at /v1/names/search.
Prometheus metrics are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		return withApp(cmd, func(ctx context.Context, app *service.App, u ui.UI) error {
			srv := server.New(app.Dispatcher, app.Index, app.Logger())
			u.Info("Listening on http://%s", config.Current.Listen)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(gctx, config.Current.Listen)
			})
			g.Go(func() error {
				<-gctx.Done()
				app.Dispatcher.Stop()
				return nil
			})
			return g.Wait()
		})
	},
}

func init() {
	serveCmd.Flags().StringVarP(&config.Current.Listen, "listen", "l", config.Current.Listen, "address the HTTP API listens on.")
	rootCmd.AddCommand(serveCmd)
}
