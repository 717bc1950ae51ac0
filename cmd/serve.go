package cmd

import (
	"context"
	"fmt"

	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/GetMystAdmin/hot-pot/internal/shell"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve personalized pages over HTTP",
	Long: `Start a local HTTP shell. Point a browser at
  http://<addr>/browse?url=<site>[&trait=Name=value...]
Metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		app, err := pipeline.Setup(cmd.Context(), cfg, log, metrics.New(reg),
			pipeline.NotifyFunc(func(n pipeline.Notice) {
				log.Info("regeneration finished", logger.String("notice", n.String()))
			}))
		if err != nil {
			return fmt.Errorf("opening template store: %w", err)
		}
		defer app.Close()

		srv := shell.New(shell.Options{
			Navigator:      app.Personalizer,
			Regenerator:    app.Regenerator,
			AutoRegenerate: app.AutoRegenerate(),
			Profile:        cfg.DefaultProfile(),
			Gatherer:       reg,
			Log:            log.With(logger.String("component", "shell")),
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(flagAddr) }()
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s/browse?url=\n", flagAddr)

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), shell.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down shell")
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:8787", "listen address")
	rootCmd.AddCommand(serveCmd)
}
