// Package podcast turns a generated dialogue script into audio: one voice
// per host, one clip per line, merged or streamed in order.
package podcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/ai"
)

var (
	ErrMalformedScript    = errors.New("malformed podcast script")
	ErrVoicePoolExhausted = errors.New("more hosts than available voices")
)

// DefaultVoices is the speech voice pool.
var DefaultVoices = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

type Line struct {
	Host    string `json:"host"`
	Content string `json:"content"`
}

type Script struct {
	Title      string `json:"title"`
	Transcript []Line `json:"transcript"`
}

type envelope struct {
	Podcast *Script `json:"podcast"`
}

// ParseScript reads {"podcast": {...}}, with or without a markdown fence
// around it.
func ParseScript(raw string) (Script, error) {
	var env envelope
	if err := json.Unmarshal([]byte(ai.StripCodeFence(raw)), &env); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrMalformedScript, err)
	}
	if env.Podcast == nil {
		return Script{}, fmt.Errorf("%w: no podcast object", ErrMalformedScript)
	}
	if len(env.Podcast.Transcript) == 0 {
		return Script{}, fmt.Errorf("%w: empty transcript", ErrMalformedScript)
	}
	return *env.Podcast, nil
}

// ParseOrSave parses raw and, when that fails, writes raw to
// {dir}/script-{timestamp}.txt so the response can be inspected. The
// returned error names the file.
func ParseOrSave(raw, dir string) (Script, error) {
	s, err := ParseScript(raw)
	if err == nil {
		return s, nil
	}
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return Script{}, err
	}
	path := filepath.Join(dir, fmt.Sprintf("script-%s.txt", time.Now().Format("20060102-150405")))
	if wErr := os.WriteFile(path, []byte(raw), 0o644); wErr != nil {
		return Script{}, err
	}
	return Script{}, fmt.Errorf("%w (raw response saved to %s)", err, path)
}

// Hosts lists the distinct hosts in order of first appearance.
func (s Script) Hosts() []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, l := range s.Transcript {
		if !seen[l.Host] {
			seen[l.Host] = true
			hosts = append(hosts, l.Host)
		}
	}
	return hosts
}

// AssignVoices gives each distinct host its own voice drawn at random from
// pool. pool is not modified.
func AssignVoices(hosts []string, pool []string, rng *rand.Rand) (map[string]string, error) {
	left := append([]string(nil), pool...)
	voices := make(map[string]string, len(hosts))
	for _, h := range hosts {
		if _, ok := voices[h]; ok {
			continue
		}
		if len(left) == 0 {
			return nil, fmt.Errorf("%w: %d voices, host %q has none", ErrVoicePoolExhausted, len(pool), h)
		}
		i := rng.IntN(len(left))
		voices[h] = left[i]
		left = append(left[:i], left[i+1:]...)
	}
	return voices, nil
}
