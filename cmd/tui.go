package cmd

import (
	"context"
	"fmt"

	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/GetMystAdmin/hot-pot/internal/tui"
	"github.com/GetMystAdmin/hot-pot/internal/update"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	// Notices reach the user through the TUI's activity pane, not the notifier.
	app, err := pipeline.Setup(cmd.Context(), cfg, log, metrics.New(prometheus.NewRegistry()), nil)
	if err != nil {
		return fmt.Errorf("opening template store: %w", err)
	}
	defer app.Close()

	log.Info("tui started", logger.String("store", cfg.Store.Backend))
	return tui.Run(tui.RunOpts{
		Navigator:      app.Personalizer,
		Regenerator:    app.Regenerator,
		AutoRegenerate: app.AutoRegenerate(),
		Archive:        app.Personalizer.Archive,
		Profile:        cfg.DefaultProfile(),
		CheckUpdate: func(ctx context.Context) string {
			return update.Latest(ctx, version)
		},
	})
}
