package podcast

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/google/uuid"
)

// ScriptWriter produces the raw script text for a topic.
type ScriptWriter interface {
	GenerateScript(ctx context.Context, topic string) (string, error)
}

type Producer struct {
	Writer     ScriptWriter
	Speech     Synthesizer
	Player     Player
	Voices     []string
	SampleRate int
	// Dir receives clips, merged episodes and unparseable scripts.
	Dir  string
	Rand *rand.Rand
	Log  logger.Logger
}

// Generate asks the writer for a script about topic and parses it.
func (p *Producer) Generate(ctx context.Context, topic string) (Script, error) {
	raw, err := p.Writer.GenerateScript(ctx, topic)
	if err != nil {
		return Script{}, fmt.Errorf("generating script: %w", err)
	}
	s, err := ParseOrSave(raw, p.Dir)
	if err != nil {
		p.log().Warn("podcast script did not parse", logger.Err(err))
		return Script{}, err
	}
	return s, nil
}

// Cast assigns every host in s a voice.
func (p *Producer) Cast(s Script) (map[string]string, error) {
	pool := p.Voices
	if len(pool) == 0 {
		pool = DefaultVoices
	}
	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return AssignVoices(s.Hosts(), pool, rng)
}

// Synthesize writes one mp3 per transcript line, in order, as
// {Dir}/speech-{i}.mp3.
func (p *Producer) Synthesize(ctx context.Context, s Script, voices map[string]string) ([]string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", p.Dir, err)
	}
	clips := make([]string, 0, len(s.Transcript))
	for i, line := range s.Transcript {
		voice, ok := voices[line.Host]
		if !ok {
			return clips, fmt.Errorf("no voice for host %q", line.Host)
		}
		path := filepath.Join(p.Dir, fmt.Sprintf("speech-%d.mp3", i))
		if err := p.speakTo(ctx, voice, line.Content, path); err != nil {
			return clips, fmt.Errorf("line %d: %w", i, err)
		}
		p.log().Debug("synthesized line", logger.Int("line", i), logger.String("host", line.Host), logger.String("voice", voice))
		clips = append(clips, path)
	}
	return clips, nil
}

func (p *Producer) speakTo(ctx context.Context, voice, text, path string) error {
	audio, err := p.Speech.Speak(ctx, voice, text, FormatMP3)
	if err != nil {
		return err
	}
	defer audio.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MergeClips concatenates mp3 clips in order into
// {dir}/podcast-{8 hex chars}.mp3.
func MergeClips(clips []string, dir string) (string, error) {
	if len(clips) == 0 {
		return "", fmt.Errorf("no clips to merge")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, fmt.Sprintf("podcast-%s.mp3", uuid.NewString()[:8]))
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	for _, c := range clips {
		if err := appendFile(f, c); err != nil {
			f.Close()
			os.Remove(out)
			return "", fmt.Errorf("merging %s: %w", c, err)
		}
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return out, nil
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Stream synthesizes and plays each line in order, waiting for playback to
// finish before starting the next.
func (p *Producer) Stream(ctx context.Context, s Script, voices map[string]string) error {
	rate := p.SampleRate
	if rate <= 0 {
		rate = 24000
	}
	for i, line := range s.Transcript {
		voice, ok := voices[line.Host]
		if !ok {
			return fmt.Errorf("no voice for host %q", line.Host)
		}
		audio, err := p.Speech.Speak(ctx, voice, line.Content, FormatPCM)
		if err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		err = p.Player.Play(ctx, audio, rate)
		audio.Close()
		if err != nil {
			return fmt.Errorf("playing line %d: %w", i, err)
		}
	}
	return nil
}

func (p *Producer) log() logger.Logger {
	if p.Log == nil {
		return logger.Nop()
	}
	return p.Log
}
