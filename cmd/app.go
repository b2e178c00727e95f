package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/config"
	"github.com/tranvictor/addrscout/service"
	"github.com/tranvictor/addrscout/ui"
	"github.com/tranvictor/addrscout/util/logging"
)

// newUI is swapped for a RecordingUI in tests.
var newUI = func() ui.UI { return ui.NewTerminalUI() }

// withApp assembles the pipeline from config.Current, starts it, runs fn and
// shuts everything down again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *service.App, u ui.UI) error) error {
	logger, err := logging.New(config.Current.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	app, err := service.NewApp(config.Current, logger)
	if err != nil {
		return fmt.Errorf("couldn't set up addrscout: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app.Start(ctx)
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing failed", zap.Error(err))
		}
	}()
	return fn(ctx, app, newUI())
}
