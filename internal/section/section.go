// Package section finds, replaces and marks the repeatable region of a page
// template. The region sits between two fixed HTML comments.
package section

import (
	"errors"
	"strings"
)

const (
	StartMarker = "<!-- Template section start -->"
	EndMarker   = "<!-- Template section end -->"
)

var ErrMarkersNotFound = errors.New("template section markers not found")

// ErrMarkerInContent is returned when a replacement carries a marker of its
// own, which would break the next extraction.
var ErrMarkerInContent = errors.New("replacement contains a template section marker")

// bounds returns the offsets just after the start marker and at the end
// marker. The end marker is searched only after the start marker.
func bounds(doc string) (from, to int, ok bool) {
	s := strings.Index(doc, StartMarker)
	if s < 0 {
		return 0, 0, false
	}
	from = s + len(StartMarker)
	e := strings.Index(doc[from:], EndMarker)
	if e < 0 {
		return 0, 0, false
	}
	return from, from + e, true
}

// Extract returns the trimmed text between the markers. ok is false when
// either marker is missing or they are out of order.
func Extract(doc string) (fragment string, ok bool) {
	from, to, ok := bounds(doc)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(doc[from:to]), true
}

// Splice replaces everything between the markers with replacement. Both
// markers are kept so the result can be extracted again.
func Splice(doc, replacement string) (string, error) {
	from, to, ok := bounds(doc)
	if !ok {
		return "", ErrMarkersNotFound
	}
	if strings.Contains(replacement, StartMarker) || strings.Contains(replacement, EndMarker) {
		return "", ErrMarkerInContent
	}
	var b strings.Builder
	b.Grow(len(doc) - (to - from) + len(replacement) + 2)
	b.WriteString(doc[:from])
	b.WriteByte('\n')
	b.WriteString(replacement)
	b.WriteByte('\n')
	b.WriteString(doc[to:])
	return b.String(), nil
}

// Has reports whether doc carries a well-ordered marker pair.
func Has(doc string) bool {
	_, _, ok := bounds(doc)
	return ok
}
