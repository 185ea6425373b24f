// Package policy holds the named absence-limit presets eligibility checks
// run against. The built-in presets cover the published naturalisation
// limits and the discretion band above them; deployments can override or
// extend them with a YAML file.
package policy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/absenced-dev/absenced/internal/absence"
)

const defaultSearchYears = 10

// Entry is one named preset as it appears in the YAML file.
type Entry struct {
	Label              string `yaml:"label"`
	MaxTwelveMonthDays int    `yaml:"max_twelve_month_days"`
	MaxFiveYearDays    int    `yaml:"max_five_year_days"`
	SearchYears        int    `yaml:"search_years"`
}

// file is the YAML document shape.
type file struct {
	Policies map[string]Entry `yaml:"policies"`
}

// Set is a resolved collection of presets.
type Set struct {
	entries map[string]Entry
}

// Defaults returns the built-in presets.
func Defaults() *Set {
	return &Set{entries: map[string]Entry{
		"standard": {
			Label:              "Standard naturalisation limits (90 / 450)",
			MaxTwelveMonthDays: 90,
			MaxFiveYearDays:    450,
			SearchYears:        defaultSearchYears,
		},
		"discretionary": {
			Label:              "Home Office discretion band (100 / 480)",
			MaxTwelveMonthDays: 100,
			MaxFiveYearDays:    480,
			SearchYears:        defaultSearchYears,
		},
	}}
}

// Load returns the built-in presets merged with the YAML file at path.
// File entries win over built-ins of the same name. An empty path returns
// the defaults unchanged.
func Load(path string) (*Set, error) {
	set := Defaults()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	for name, entry := range f.Policies {
		if entry.MaxTwelveMonthDays <= 0 || entry.MaxFiveYearDays <= 0 {
			return nil, fmt.Errorf("policy %q: absence limits must be positive", name)
		}
		set.entries[name] = entry
	}

	return set, nil
}

// Get resolves a preset name to calculator limits. An empty search horizon
// falls back to the default.
func (s *Set) Get(name string) (absence.Policy, error) {
	entry, ok := s.entries[name]
	if !ok {
		return absence.Policy{}, fmt.Errorf("unknown policy %q", name)
	}

	years := entry.SearchYears
	if years <= 0 {
		years = defaultSearchYears
	}

	return absence.Policy{
		MaxTwelveMonthDays: entry.MaxTwelveMonthDays,
		MaxFiveYearDays:    entry.MaxFiveYearDays,
		SearchYears:        years,
	}, nil
}

// Label returns the human-readable label for a preset, or the name itself
// when the preset has none.
func (s *Set) Label(name string) string {
	if entry, ok := s.entries[name]; ok && entry.Label != "" {
		return entry.Label
	}
	return name
}

// Names lists the available presets in stable order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
