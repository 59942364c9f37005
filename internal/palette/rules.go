package palette

import (
	"fmt"
	"slices"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// Mode selects which heuristic a special-case rule adjusts.
type Mode string

const (
	// ModeColorDistance scores combinations by raw RGB distance and skips dark-shade
	// replacement.
	ModeColorDistance Mode = "colorDistance"

	// ModeTopNColors overrides how many frequent colours become candidates.
	ModeTopNColors Mode = "topNColors"

	// ModeMostFrequent sets the hue bin used when forcing the most frequent colour in.
	ModeMostFrequent Mode = "mostFrequent"

	// ModeLeastBoringColor sets the count threshold for the least-boring fill-in.
	ModeLeastBoringColor Mode = "leastBoringColor"

	// ModeHandPickedColors pins exact colours to the front of the palette.
	ModeHandPickedColors Mode = "handPickedColors"
)

// Modes returns every supported mode.
func Modes() []Mode {
	return []Mode{
		ModeColorDistance,
		ModeTopNColors,
		ModeMostFrequent,
		ModeLeastBoringColor,
		ModeHandPickedColors,
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !slices.Contains(Modes(), m) {
		return "", fmt.Errorf("unknown special-case mode: %q (valid modes: %v)", s, Modes())
	}
	return m, nil
}

// Rule is a per-sprite override.
type Rule struct {
	Mode Mode `json:"mode"`

	// Value is the mode parameter: top-n for topNColors, hue bin size for mostFrequent,
	// count threshold for leastBoringColor. Zero keeps the default.
	Value int `json:"value,omitempty"`

	// Colours are the pinned colours for handPickedColors.
	Colours []colour.RGB `json:"colours,omitempty"`
}

// Validate validates the rule.
func (r Rule) Validate() error {
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	if r.Value < 0 {
		return fmt.Errorf("%s value cannot be negative, got %d", r.Mode, r.Value)
	}
	if r.Mode == ModeMostFrequent && r.Value > 360 {
		return fmt.Errorf("%s hue bin must be at most 360, got %d", r.Mode, r.Value)
	}
	if r.Mode == ModeHandPickedColors && len(r.Colours) == 0 {
		return fmt.Errorf("%s requires at least one colour", r.Mode)
	}
	return nil
}

// Rules maps sprite identifiers to their special case.
type Rules map[int]Rule

// Lookup returns the rule for id. A missing rule yields the zero Rule, which applies
// the default heuristics.
func (r Rules) Lookup(id int) (Rule, bool) {
	rule, ok := r[id]
	return rule, ok
}

// IDs returns the identifiers with rules in ascending order.
func (r Rules) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate validates every rule.
func (r Rules) Validate() error {
	for _, id := range r.IDs() {
		if err := r[id].Validate(); err != nil {
			return fmt.Errorf("special case %d: %w", id, err)
		}
	}
	return nil
}
