package cmd

import (
	"fmt"
	"strings"

	"github.com/GetMystAdmin/hot-pot/internal/flow"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/podcast"
	"github.com/spf13/cobra"
)

var (
	flagPodcastStream bool
	flagPodcastScript bool
)

var podcastCmd = &cobra.Command{
	Use:   "podcast <topic>",
	Short: "Write and voice a multi-host podcast episode",
	Long: `Ask the flow service for a dialogue about the topic, give each host a
voice and synthesize every line. By default the clips are merged into one
mp3 under the data directory; --stream plays each line as it is ready.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		topic := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		p := &podcast.Producer{
			Writer:     flow.FromConfig(cfg),
			Voices:     cfg.Podcast.Voices,
			SampleRate: cfg.Podcast.SampleRate,
			Dir:        cfg.PodcastPath(),
			Log:        log.With(logger.String("component", "podcast")),
		}

		fmt.Fprintf(out, "Writing a script about %q...\n", topic)
		script, err := p.Generate(cmd.Context(), topic)
		if err != nil {
			return err
		}
		voices, err := p.Cast(script)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", script.Title)
		for _, h := range script.Hosts() {
			fmt.Fprintf(out, "  %s as %s\n", h, voices[h])
		}
		if flagPodcastScript {
			for _, l := range script.Transcript {
				fmt.Fprintf(out, "\n%s: %s\n", l.Host, l.Content)
			}
			return nil
		}

		key := cfg.OpenAIKey()
		if key == "" {
			return fmt.Errorf("speech synthesis needs OPENAI_API_KEY")
		}
		p.Speech = podcast.NewOpenAISpeech(key, cfg.Podcast.TTSModel)

		if flagPodcastStream {
			p.Player = podcast.ExecPlayer{Command: cfg.Podcast.Player}
			return p.Stream(cmd.Context(), script, voices)
		}

		clips, err := p.Synthesize(cmd.Context(), script, voices)
		if err != nil {
			return err
		}
		episode, err := podcast.MergeClips(clips, p.Dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nEpisode: %s\n", episode)
		return nil
	},
}

func init() {
	podcastCmd.Flags().BoolVar(&flagPodcastStream, "stream", false, "play lines as they are synthesized instead of writing a file")
	podcastCmd.Flags().BoolVar(&flagPodcastScript, "script-only", false, "print the script without synthesizing audio")
	rootCmd.AddCommand(podcastCmd)
}
