package section

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoMatch = errors.New("no element matches selector")

// Selector names the element that repeats once per post.
type Selector struct {
	Tag   string `json:"tag"`
	Class string `json:"class"`
}

// CSS renders the selector as "tag.class1.class2".
func (s Selector) CSS() string {
	css := strings.TrimSpace(s.Tag)
	for _, c := range strings.Fields(s.Class) {
		css += "." + c
	}
	return css
}

// ParseSelector reads "tag.class1.class2".
func ParseSelector(s string) (Selector, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if parts[0] == "" {
		return Selector{}, fmt.Errorf("selector %q has no tag", s)
	}
	return Selector{Tag: parts[0], Class: strings.Join(parts[1:], " ")}, nil
}

func parse(doc string) (*goquery.Document, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return d, nil
}

// Body returns the outer HTML of the document's <body>.
func Body(doc string) (string, error) {
	d, err := parse(doc)
	if err != nil {
		return "", err
	}
	return goquery.OuterHtml(d.Find("body").First())
}

// Mark keeps the first element matching sel, drops its siblings that also
// match, and wraps the survivor in the section markers. Without a match the
// input is returned as is together with ErrNoMatch.
func Mark(doc string, sel Selector) (string, error) {
	css := sel.CSS()
	if css == "" {
		return doc, ErrNoMatch
	}
	d, err := parse(doc)
	if err != nil {
		return doc, err
	}
	matches := d.Find(css)
	if matches.Length() == 0 {
		return doc, fmt.Errorf("%w: %s", ErrNoMatch, css)
	}
	matches.Slice(1, goquery.ToEnd).Remove()

	first := matches.First()
	first.BeforeHtml(StartMarker)
	first.AfterHtml(EndMarker)
	return d.Html()
}

// ReplaceBody swaps original's <body> contents for those of newDoc and keeps
// original's <head>.
func ReplaceBody(original, newDoc string) (string, error) {
	orig, err := parse(original)
	if err != nil {
		return "", err
	}
	repl, err := parse(newDoc)
	if err != nil {
		return "", err
	}
	inner, err := repl.Find("body").First().Html()
	if err != nil {
		return "", fmt.Errorf("rendering body: %w", err)
	}
	orig.Find("body").First().SetHtml(inner)
	return orig.Html()
}
