// Package filter drops tombstoned records and records heuristically
// identified as wire-service content not authored by the publisher.
package filter

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	pkgconfig "github.com/starford/othala/pkg/config"
)

// Overrides are the versioned lookup tables behind the wire-content
// heuristic. They ship with compiled-in defaults and can be replaced from a
// YAML file so the policy can change without a code change.
type Overrides struct {
	// WireAuthors are normalized byline names that identify syndicated
	// content with high confidence.
	WireAuthors []string `yaml:"wire_authors"`

	// DefiniteWireCategories filter immediately on membership.
	DefiniteWireCategories []string `yaml:"definite_wire_categories"`

	// MaybeWireCategories add one point each to the ambiguity score.
	MaybeWireCategories []string `yaml:"maybe_wire_categories"`

	// ScoreThreshold is the accumulated score at which an ambiguous record
	// is treated as wire content.
	ScoreThreshold int `yaml:"score_threshold"`
}

// Validate validates the override tables.
func (o *Overrides) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.WireAuthors, validation.Required),
		validation.Field(&o.DefiniteWireCategories, validation.Required),
		validation.Field(&o.ScoreThreshold, validation.Required, validation.Min(1)),
	)
}

// DefaultOverrides returns the tables recovered from the legacy import
// scripts. The threshold of 4 is inherited policy, not derived.
func DefaultOverrides() Overrides {
	return Overrides{
		WireAuthors: []string{
			"Associated Press",
			"The Associated Press",
			"AP",
			"Reuters",
			"CNN Newsource",
			"States Newsroom",
		},
		DefiniteWireCategories: []string{
			"ap-stories",
			"wire",
			"national-wire",
		},
		MaybeWireCategories: []string{
			"national",
			"world",
		},
		ScoreThreshold: 4,
	}
}

// LoadOverrides reads override tables from a YAML file. A table present in
// the file replaces the corresponding default table; a table the file omits
// keeps its compiled-in default. An empty path returns the defaults.
func LoadOverrides(path string) (Overrides, error) {
	o := DefaultOverrides()
	if path == "" {
		return o, nil
	}
	if err := pkgconfig.Load(path, &o); err != nil {
		return Overrides{}, err
	}
	return o, nil
}
