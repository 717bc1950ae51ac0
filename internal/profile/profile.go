// Package profile holds the personality traits that steer post generation.
package profile

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinValue = 1
	MaxValue = 10
)

// Trait is one named personality dimension scored 1–10.
type Trait struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
}

// Profile is an ordered set of traits. Order is preserved when formatting.
type Profile struct {
	traits []Trait
}

// New builds a profile, clamping every value into range. A repeated name
// updates the earlier trait in place.
func New(traits ...Trait) Profile {
	var p Profile
	for _, t := range traits {
		p = p.With(t.Name, t.Value)
	}
	return p
}

// With returns a copy of p with name set to value.
func (p Profile) With(name string, value int) Profile {
	name = strings.TrimSpace(name)
	out := Profile{traits: make([]Trait, len(p.traits), len(p.traits)+1)}
	copy(out.traits, p.traits)
	if name == "" {
		return out
	}
	for i := range out.traits {
		if strings.EqualFold(out.traits[i].Name, name) {
			out.traits[i].Value = Clamp(value)
			return out
		}
	}
	out.traits = append(out.traits, Trait{Name: name, Value: Clamp(value)})
	return out
}

func (p Profile) Traits() []Trait {
	out := make([]Trait, len(p.traits))
	copy(out, p.traits)
	return out
}

func (p Profile) Len() int { return len(p.traits) }

// Value returns the named trait's value.
func (p Profile) Value(name string) (int, bool) {
	for _, t := range p.traits {
		if strings.EqualFold(t.Name, name) {
			return t.Value, true
		}
	}
	return 0, false
}

// String renders the profile as "Trait: n/10" lines.
func (p Profile) String() string {
	var sb strings.Builder
	for i, t := range p.traits {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %d/%d", t.Name, t.Value, MaxValue)
	}
	return sb.String()
}

func Clamp(v int) int {
	switch {
	case v < MinValue:
		return MinValue
	case v > MaxValue:
		return MaxValue
	default:
		return v
	}
}

// ParseTrait parses "Name=7" or "Name:7".
func ParseTrait(s string) (Trait, error) {
	sep := strings.IndexAny(s, "=:")
	if sep <= 0 {
		return Trait{}, fmt.Errorf("invalid trait %q (want Name=value)", s)
	}
	name := strings.TrimSpace(s[:sep])
	raw := strings.TrimSuffix(strings.TrimSpace(s[sep+1:]), "/10")
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Trait{}, fmt.Errorf("invalid trait value in %q: %w", s, err)
	}
	return Trait{Name: name, Value: v}, nil
}

// Override applies "Name=value" pairs on top of base.
func Override(base Profile, pairs []string) (Profile, error) {
	p := base
	for _, pair := range pairs {
		t, err := ParseTrait(pair)
		if err != nil {
			return base, err
		}
		p = p.With(t.Name, t.Value)
	}
	return p, nil
}
