package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/GetMystAdmin/hot-pot/internal/news"
	"github.com/spf13/cobra"
)

var (
	flagNewsLimit  int
	flagNewsPrompt bool
)

var newsCmd = &cobra.Command{
	Use:   "news [category...]",
	Short: "Print the latest headlines from the configured sources",
	Long: `Fetch headlines from every enabled source, or only the named ones.
--prompt prints the flattened block that is sent to the post generator.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sources, err := selectSources(cfg, args)
		if err != nil {
			return err
		}
		limit := cfg.GetNewsLimit()
		if flagNewsLimit > 0 {
			limit = flagNewsLimit
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.NewsTimeout())
		defer cancel()
		categories := news.FetchAll(ctx, news.NewClient(cfg.NewsTimeout()), sources, limit)

		out := cmd.OutOrStdout()
		var all []news.Article
		for _, c := range categories {
			if c.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "  [warn] %s: %v\n", c.Name, c.Err)
				continue
			}
			all = append(all, c.Articles...)
			if !flagNewsPrompt {
				news.Display(out, c.Name, c.Articles)
			}
		}
		if flagNewsPrompt {
			fmt.Fprintln(out, news.Format(all))
		}
		if len(all) == 0 {
			return fmt.Errorf("no headlines from %d source(s)", len(sources))
		}
		return nil
	},
}

// selectSources returns the enabled sources, or the named ones whether
// enabled or not.
func selectSources(cfg *config.Config, names []string) ([]config.Source, error) {
	if len(names) == 0 {
		return cfg.EnabledSources(), nil
	}
	var out []config.Source
	for _, n := range names {
		found := false
		for _, s := range cfg.News.Sources {
			if strings.EqualFold(s.Name, n) {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown news source %q (configured: %s)", n, strings.Join(sourceNames(cfg), ", "))
		}
	}
	return out, nil
}

func sourceNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.News.Sources))
	for i, s := range cfg.News.Sources {
		names[i] = s.Name
	}
	return names
}

func init() {
	newsCmd.Flags().IntVarP(&flagNewsLimit, "limit", "n", 0, "articles per source (default from config)")
	newsCmd.Flags().BoolVar(&flagNewsPrompt, "prompt", false, "print the block sent to the post generator")
	rootCmd.AddCommand(newsCmd)
}
