package cmd

import (
	"fmt"
	"os"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/GetMystAdmin/hot-pot/internal/section"
	"github.com/GetMystAdmin/hot-pot/internal/store"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Read and write the template store",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Print the cached template for a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := store.Key(args[0])
		if err != nil {
			return err
		}
		st, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("opening template store: %w", err)
		}
		defer st.Close()

		e, ok, err := st.Get(cmd.Context(), key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no template cached for %s", key)
		}
		fmt.Fprintln(cmd.OutOrStdout(), e.Template)
		return nil
	},
}

var cachePutCmd = &cobra.Command{
	Use:   "put <url> <template-file>",
	Short: "Store a template file for a site",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := store.Key(args[0])
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		doc, _, err := section.Decode(raw)
		if err != nil {
			return err
		}

		st, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("opening template store: %w", err)
		}
		defer st.Close()

		e, err := st.Put(cmd.Context(), key, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (id %s)\n", e.URL, e.ID)
		if !section.Has(doc) {
			fmt.Fprintln(cmd.OutOrStdout(), "  warning: template has no section markers; it will be shown unpersonalized")
		}
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local template cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		db, err := store.OpenLocal(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		keys, err := db.Keys(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cache: %s\n", dbPath)
		fmt.Fprintf(out, "Templates: %d\n", count)
		fmt.Fprintf(out, "Size: %s\n", formatBytes(size))
		for _, k := range keys {
			fmt.Fprintf(out, "  %s\n", k)
		}
		return nil
	},
}

var cacheInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Astra table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Backend != "astra" {
			fmt.Fprintf(cmd.OutOrStdout(), "The %s backend creates its table on open.\n", backendName(cfg))
			return nil
		}
		st, err := store.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		astra, ok := st.(*store.AstraStore)
		if !ok {
			return fmt.Errorf("unexpected store type %T", st)
		}
		if err := astra.EnsureTable(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Table %s.%s ready.\n", cfg.Store.Astra.Keyspace, cfg.Store.Astra.Table)
		return nil
	},
}

func backendName(cfg *config.Config) string {
	if cfg.Store.Backend == "" {
		return "local"
	}
	return cfg.Store.Backend
}

func init() {
	cacheCmd.AddCommand(cacheGetCmd, cachePutCmd, cacheStatsCmd, cacheInitCmd)
	rootCmd.AddCommand(cacheCmd)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
