package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive writes renderings as {dir}/{key}-{YYYYMMDD-HHMMSS}.{ext}. Two
// writes for the same key and extension within one second overwrite each
// other.
type Archive struct {
	Dir string
	now func() time.Time
}

func NewArchive(dir string) *Archive {
	return &Archive{Dir: dir, now: time.Now}
}

// Path returns the file name a write for key and ext would use right now.
func (a *Archive) Path(key, ext string) string {
	name := fmt.Sprintf("%s-%s.%s", fileSafe(key), a.now().Format("20060102-150405"), ext)
	return filepath.Join(a.Dir, name)
}

func (a *Archive) Write(key, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}
	path := a.Path(key, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func fileSafe(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
}
