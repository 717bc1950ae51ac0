package tui

import (
	"fmt"
	"strings"

	"github.com/GetMystAdmin/hot-pot/internal/profile"
)

// sliders edits an ordered list of traits, one selected at a time.
type sliders struct {
	traits []profile.Trait
	cursor int
}

func newSliders(p profile.Profile) sliders {
	return sliders{traits: p.Traits()}
}

func (s *sliders) up() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *sliders) down() {
	if s.cursor < len(s.traits)-1 {
		s.cursor++
	}
}

// adjust moves the selected trait by delta, staying within 1–10.
func (s *sliders) adjust(delta int) {
	if len(s.traits) == 0 {
		return
	}
	t := &s.traits[s.cursor]
	t.Value = profile.Clamp(t.Value + delta)
}

func (s *sliders) set(v int) {
	if len(s.traits) == 0 {
		return
	}
	s.traits[s.cursor].Value = profile.Clamp(v)
}

func (s sliders) profile() profile.Profile {
	return profile.New(s.traits...)
}

func renderSlider(t profile.Trait, selected bool, nameWidth int) string {
	name := fmt.Sprintf("%-*s", nameWidth, t.Name)
	if selected {
		name = traitSelectedStyle.Render("> " + name)
	} else {
		name = traitNameStyle.Render("  " + name)
	}
	bar := sliderFilledStyle.Render(strings.Repeat("■", t.Value)) +
		sliderEmptyStyle.Render(strings.Repeat("□", profile.MaxValue-t.Value))
	return fmt.Sprintf("%s %s %2d/%d", name, bar, t.Value, profile.MaxValue)
}

func (s sliders) render() string {
	width := 0
	for _, t := range s.traits {
		width = max(width, len([]rune(t.Name)))
	}
	lines := make([]string, 0, len(s.traits))
	for i, t := range s.traits {
		lines = append(lines, renderSlider(t, i == s.cursor, width))
	}
	return strings.Join(lines, "\n")
}
