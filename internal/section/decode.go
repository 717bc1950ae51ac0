package section

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

type encodingSpec struct {
	name string
	enc  encoding.Encoding // nil means utf-8
}

// encodings is the order documents read from disk are decoded in.
var encodings = []encodingSpec{
	{"utf-8", nil},
	{"latin1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
}

// Decode converts raw bytes to text using the first encoding that accepts
// them. UTF-8 must validate; the single-byte code pages accept any input.
func Decode(raw []byte) (text, encodingName string, err error) {
	for _, e := range encodings {
		s, ok := decodeWith(e, raw)
		if ok {
			return s, e.name, nil
		}
	}
	return "", "", fmt.Errorf("no encoding in %d candidates could decode input", len(encodings))
}

func decodeWith(e encodingSpec, raw []byte) (string, bool) {
	if e.enc == nil {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
	out, err := e.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// ExtractFile reads a template from disk and extracts its section. Each
// encoding is tried in turn; one whose decoded text lacks the markers moves
// on to the next.
func ExtractFile(path string) (fragment string, ok bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, e := range encodings {
		text, decoded := decodeWith(e, raw)
		if !decoded {
			continue
		}
		if frag, found := Extract(text); found {
			return frag, true, nil
		}
	}
	return "", false, nil
}
