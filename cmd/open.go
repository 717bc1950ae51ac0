package cmd

import (
	"fmt"

	"github.com/GetMystAdmin/hot-pot/internal/browser"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/GetMystAdmin/hot-pot/internal/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	flagTraits    []string
	flagNoBrowser bool
)

var openCmd = &cobra.Command{
	Use:     "open <url>",
	Aliases: []string{"browse"},
	Short:   "Visit one URL with your personality and show the result",
	Long: `Resolve the URL against the template store. A cached template with a
marked section is personalized and opened as a local file; a cached template
without one is opened as is; anything else opens the live site.

Traits from the config can be overridden with --trait Name=value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		prof, err := profile.Override(cfg.DefaultProfile(), flagTraits)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		app, err := pipeline.Setup(cmd.Context(), cfg, log, metrics.New(prometheus.NewRegistry()),
			pipeline.NotifyFunc(func(n pipeline.Notice) { fmt.Fprintln(out, n) }))
		if err != nil {
			return fmt.Errorf("opening template store: %w", err)
		}
		defer app.Close()

		res, err := app.Personalizer.Navigate(cmd.Context(), args[0], prof)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", res.Key, res.Outcome)
		if res.Err != nil {
			fmt.Fprintf(out, "  personalization skipped: %v\n", res.Err)
		}

		target, isFile, err := displayTarget(res, app.Personalizer.Archive)
		if err != nil {
			return err
		}
		if isFile {
			fmt.Fprintf(out, "  %s\n", target)
		}
		if !flagNoBrowser {
			if isFile {
				err = browser.OpenFile(target)
			} else {
				err = browser.Open(target)
			}
			if err != nil {
				log.Warn("opening browser failed", logger.Err(err))
				fmt.Fprintf(out, "  could not open a browser: %v\n", err)
			}
		}

		if res.Outcome == pipeline.Live && app.AutoRegenerate() {
			app.Regenerator.OnLoad(cmd.Context(), res.URL)
		}
		return nil
	},
}

// displayTarget returns what to show for res: the live URL on a miss,
// otherwise a file holding the document.
func displayTarget(res pipeline.Result, archive *pipeline.Archive) (string, bool, error) {
	switch {
	case res.Outcome == pipeline.Live:
		return res.URL, false, nil
	case res.Archived != "":
		return res.Archived, true, nil
	default:
		path, err := archive.Write(res.Key, "html", []byte(res.Document))
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	}
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <url>",
	Short: "Rebuild a page from a screenshot of the live site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		out := cmd.OutOrStdout()
		app, err := pipeline.Setup(cmd.Context(), cfg, log, metrics.New(prometheus.NewRegistry()),
			pipeline.NotifyFunc(func(n pipeline.Notice) { fmt.Fprintln(out, n) }))
		if err != nil {
			return fmt.Errorf("opening template store: %w", err)
		}
		defer app.Close()

		fmt.Fprintf(out, "Capturing %s...\n", args[0])
		n, err := app.Regenerator.Regenerate(cmd.Context(), args[0])
		if err != nil {
			return silenceNotified(cmd, n, err)
		}
		if n.Screenshot != "" {
			fmt.Fprintf(out, "  screenshot: %s\n", n.Screenshot)
		}
		return nil
	},
}

// silenceNotified keeps cobra from printing err a second time when the
// notifier already reported it.
func silenceNotified(cmd *cobra.Command, n pipeline.Notice, err error) error {
	if n.Err != nil {
		cmd.SilenceErrors = true
	}
	return err
}

func init() {
	openCmd.Flags().StringArrayVarP(&flagTraits, "trait", "t", nil, "override a trait, e.g. --trait Humor=9 (repeatable)")
	openCmd.Flags().BoolVar(&flagNoBrowser, "no-browser", false, "print the result without opening a browser")
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(regenerateCmd)
}
