package domain

import "testing"

func TestCanonicalMachineNormalizesDetails(t *testing.T) {
	m := CanonicalMachine(7, "  Medieval Madness ", []string{" castle ", "", "trolls"}, true,
		" Williams ", "June 1, 1997", "SS", "WPC-95", "4,016",
		"Standard", "DMD", 4, 2, 3, 1)

	if m.Name != "Medieval Madness" {
		t.Fatalf("name not trimmed: %q", m.Name)
	}
	if len(m.Tags) != 2 || m.Tags[0] != "castle" || m.Tags[1] != "trolls" {
		t.Fatalf("tags not cleaned: %v", m.Tags)
	}
	if m.Details.ReleaseYear != 1997 {
		t.Fatalf("release year = %d", m.Details.ReleaseYear)
	}
	if m.Details.ReleaseCount != 4016 || m.Details.InProduction {
		t.Fatalf("release count wrong: %+v", m.Details)
	}
}

func TestCanonicalMachineInProduction(t *testing.T) {
	m := CanonicalMachine(1, "Rush", nil, true,
		"Stern", "2022", "SS", "Spike 2", "In production",
		"Standard", "LCD", 4, 2, 2, 3)
	if m.Details.ReleaseCount != 0 || !m.Details.InProduction {
		t.Fatalf("in-production not detected: %+v", m.Details)
	}
}

func TestCanonicalMachineUnknownYear(t *testing.T) {
	m := CanonicalMachine(1, "Mystery", nil, true,
		"", "unknown", "", "", "", "", "", 0, 0, 0, 0)
	if m.Details.ReleaseYear != 0 {
		t.Fatalf("unknown date should yield year 0, got %d", m.Details.ReleaseYear)
	}
}

func TestHasTagCaseInsensitive(t *testing.T) {
	m := Machine{Tags: []string{"Castle", "trolls"}}
	if !m.HasTag("castle") || !m.HasTag("TROLLS") {
		t.Fatalf("tag matching should be case-insensitive")
	}
	if m.HasTag("moat") {
		t.Fatalf("unexpected tag match")
	}
	if !m.HasAnyTag("moat", "castle") {
		t.Fatalf("HasAnyTag missed a present tag")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("goblin#1234"); got != "goblin" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := DisplayName("plain"); got != "plain" {
		t.Fatalf("DisplayName = %q", got)
	}
}
