package domain

import (
	"strconv"
	"strings"
)

// MachineDetails is the fixed attribute bag carried by every catalog machine.
// Raw catalog rows are normalized into this shape once, at the catalog
// boundary; predicates and selectors never see missing or mistyped values.
type MachineDetails struct {
	Manufacturer string `json:"manufacturer"`
	ReleaseYear  int    `json:"release_year"`
	Type         string `json:"type"`
	Generation   string `json:"generation"`
	ReleaseCount int    `json:"release_count"`
	InProduction bool   `json:"in_production"`
	Cabinet      string `json:"cabinet"`
	DisplayType  string `json:"display_type"`
	Players      int    `json:"players"`
	Flippers     int    `json:"flippers"`
	Ramps        int    `json:"ramps"`
	Multiball    int    `json:"multiball"`
}

// Machine is one catalog item. Immutable from the coordinator's point of
// view; only the catalog/admin surface mutates machines.
type Machine struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Tags    []string       `json:"tags"`
	Active  bool           `json:"active"`
	Details MachineDetails `json:"details"`
}

// HasTag reports whether the machine carries the tag (case-insensitive).
func (m Machine) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the machine carries at least one of the tags.
func (m Machine) HasAnyTag(tags ...string) bool {
	for _, t := range tags {
		if m.HasTag(t) {
			return true
		}
	}
	return false
}

// CanonicalMachine normalizes a raw catalog row into a Machine. Legacy rows
// store the release date as free text ending in a year and the release count
// as either a number or the literal "In production"; both are normalized
// here so predicates stay total.
func CanonicalMachine(id int64, name string, tags []string, active bool,
	manufacturer, releaseDate, machineType, generation, releaseCount,
	cabinet, displayType string, players, flippers, ramps, multiball int) Machine {

	det := MachineDetails{
		Manufacturer: strings.TrimSpace(manufacturer),
		ReleaseYear:  parseReleaseYear(releaseDate),
		Type:         strings.TrimSpace(machineType),
		Generation:   strings.TrimSpace(generation),
		Cabinet:      strings.TrimSpace(cabinet),
		DisplayType:  strings.TrimSpace(displayType),
		Players:      clampNonNegative(players),
		Flippers:     clampNonNegative(flippers),
		Ramps:        clampNonNegative(ramps),
		Multiball:    clampNonNegative(multiball),
	}
	det.ReleaseCount, det.InProduction = parseReleaseCount(releaseCount)

	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			clean = append(clean, s)
		}
	}

	return Machine{
		ID:      id,
		Name:    strings.TrimSpace(name),
		Tags:    clean,
		Active:  active,
		Details: det,
	}
}

// parseReleaseYear extracts the trailing 4-digit year from a legacy release
// date string ("March 3, 1993" or "1993"). Unknown dates yield 0.
func parseReleaseYear(raw string) int {
	s := strings.TrimSpace(raw)
	if len(s) < 4 {
		return 0
	}
	if y, err := strconv.Atoi(s[len(s)-4:]); err == nil && y > 1700 && y < 3000 {
		return y
	}
	return 0
}

// parseReleaseCount maps legacy release-count text to a count plus an
// in-production flag. "In production" rows have no final count yet.
func parseReleaseCount(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if strings.EqualFold(s, "in production") {
		return 0, true
	}
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, false
	}
	return 0, false
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
