package podcast

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	openai "github.com/sashabaranov/go-openai"
)

const (
	FormatMP3 = "mp3"
	FormatPCM = "pcm"
)

// Synthesizer turns text into audio in the given format.
type Synthesizer interface {
	Speak(ctx context.Context, voice, text, format string) (io.ReadCloser, error)
}

type OpenAISpeech struct {
	client *openai.Client
	model  string
}

func NewOpenAISpeech(apiKey, model string) *OpenAISpeech {
	return NewOpenAISpeechWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewOpenAISpeechWithConfig(cfg openai.ClientConfig, model string) *OpenAISpeech {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &OpenAISpeech{client: openai.NewClientWithConfig(cfg), model: model}
}

func (s *OpenAISpeech) Speak(ctx context.Context, voice, text, format string) (io.ReadCloser, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	return resp, nil
}

// Player plays raw 16-bit mono PCM and returns when playback ends.
type Player interface {
	Play(ctx context.Context, pcm io.Reader, sampleRate int) error
}

// ExecPlayer pipes audio into an external command such as aplay.
type ExecPlayer struct {
	Command string
}

func (p ExecPlayer) Play(ctx context.Context, pcm io.Reader, sampleRate int) error {
	name := p.Command
	if name == "" {
		name = "aplay"
	}
	var args []string
	switch name {
	case "aplay":
		args = []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(sampleRate)}
	case "ffplay":
		args = []string{"-autoexit", "-nodisp", "-loglevel", "quiet", "-f", "s16le", "-ch_layout", "mono", "-ar", strconv.Itoa(sampleRate), "-"}
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = pcm
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
