package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GetMystAdmin/hot-pot/internal/ai"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/section"
	"github.com/GetMystAdmin/hot-pot/internal/store"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the marked section of an HTML template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fragment, ok, err := section.ExtractFile(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", args[0], section.ErrMarkersNotFound)
		}
		fmt.Fprintln(cmd.OutOrStdout(), fragment)
		return nil
	},
}

var (
	flagMarkOut      string
	flagMarkSelector string
	flagMarkStore    string
)

var markCmd = &cobra.Command{
	Use:   "mark <file>",
	Short: "Turn a saved page into a template by marking its repeated section",
	Long: `Find the element that repeats once per post (asking the configured model
unless --selector is given), keep the first one, drop the rest and wrap it
in section markers. The result is written to --out and, with --store, saved
in the template store under that URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, enc, err := section.Decode(raw)
		if err != nil {
			return err
		}
		log.Debug("decoded template", logger.String("file", args[0]), logger.String("encoding", enc))

		var finder ai.SelectorFinder
		if flagMarkSelector == "" {
			finder, err = ai.New(cfg.AI, cfg.AIKey())
			if err != nil {
				return fmt.Errorf("no --selector given and %w", err)
			}
		}

		marked, sel, err := markDocument(cmd.Context(), doc, flagMarkSelector, finder)
		if err != nil {
			return err
		}

		out := flagMarkOut
		if out == "" {
			out = markedName(args[0])
		}
		if err := os.WriteFile(out, []byte(marked), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %s → %s\n", sel.CSS(), out)

		if flagMarkStore != "" {
			st, err := store.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			key, err := store.Key(flagMarkStore)
			if err != nil {
				return err
			}
			if _, err := st.Put(cmd.Context(), key, marked); err != nil {
				return fmt.Errorf("storing template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored as %s\n", key)
		}
		return nil
	},
}

// markDocument marks doc's repeated section. selector wins over finder.
func markDocument(ctx context.Context, doc, selector string, finder ai.SelectorFinder) (string, section.Selector, error) {
	body, err := section.Body(doc)
	if err != nil {
		return "", section.Selector{}, err
	}

	var sel section.Selector
	switch {
	case selector != "":
		sel, err = section.ParseSelector(selector)
	case finder != nil:
		sel, err = finder.FindSelector(ctx, body)
	default:
		err = errors.New("no selector available")
	}
	if err != nil {
		return "", section.Selector{}, err
	}

	markedBody, err := section.Mark(body, sel)
	if err != nil {
		return "", sel, err
	}
	marked, err := section.ReplaceBody(doc, markedBody)
	if err != nil {
		return "", sel, err
	}
	return marked, sel, nil
}

func markedName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".marked" + ext
}

func init() {
	markCmd.Flags().StringVarP(&flagMarkOut, "out", "o", "", "output file (default <file>.marked.html)")
	markCmd.Flags().StringVar(&flagMarkSelector, "selector", "", "repeated element as tag.class, skipping the model")
	markCmd.Flags().StringVar(&flagMarkStore, "store", "", "also save the template under this URL")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(markCmd)
}
