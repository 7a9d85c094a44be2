package themes

import (
	"testing"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

func machine(year, flippers, ramps, multiball int, display, mfr, mtype, cabinet string, tags ...string) domain.Machine {
	return domain.Machine{
		Name:   "test",
		Tags:   tags,
		Active: true,
		Details: domain.MachineDetails{
			Manufacturer: mfr,
			ReleaseYear:  year,
			Type:         mtype,
			Cabinet:      cabinet,
			DisplayType:  display,
			Flippers:     flippers,
			Ramps:        ramps,
			Multiball:    multiball,
		},
	}
}

func TestDecadeThemes(t *testing.T) {
	m := machine(1985, 2, 1, 0, "Alphanumeric", "Bally", "Solid state", "Standard")
	th, ok := ByName("80s Classics")
	if !ok {
		t.Fatalf("theme not found")
	}
	if !th.Match(m) {
		t.Fatalf("1985 machine should match 80s Classics")
	}
	seventies, _ := ByName("70s Battle")
	if seventies.Match(m) {
		t.Fatalf("1985 machine should not match 70s Battle")
	}
}

func TestUnknownYearNeverMatchesDecades(t *testing.T) {
	m := machine(0, 2, 1, 0, "LCD", "Stern", "Solid state", "Standard")
	for _, name := range []string{"70s Battle", "80s Classics", "90s Favorites", "Late 90s Hits (1995-1999)"} {
		th, ok := ByName(name)
		if !ok {
			t.Fatalf("theme %q not found", name)
		}
		if th.Match(m) {
			t.Fatalf("machine with unknown year matched %q", name)
		}
	}
}

func TestTagThemes(t *testing.T) {
	m := machine(1993, 3, 2, 3, "Dot Matrix", "Williams", "Solid state", "Standard", "horror", "movie", "licensed")
	horror, _ := ByName("Horror & Monsters")
	if !horror.Match(m) {
		t.Fatalf("expected horror tag to match")
	}
	licensed, _ := ByName("Movie Licensed")
	if !licensed.Match(m) {
		t.Fatalf("expected movie+licensed to match")
	}
	music, _ := ByName("Music & Rock")
	if music.Match(m) {
		t.Fatalf("machine without music/rock tags matched")
	}
}

func TestReleaseCountThemes(t *testing.T) {
	limited := machine(2018, 4, 3, 2, "LCD", "American Pinball", "Solid state", "Standard")
	limited.Details.ReleaseCount = 400

	small, _ := ByName("Small Release Runs (500 or Fewer)")
	if !small.Match(limited) {
		t.Fatalf("400-unit run should match small release runs")
	}

	inProd := limited
	inProd.Details.ReleaseCount = 0
	inProd.Details.InProduction = true
	if small.Match(inProd) {
		t.Fatalf("in-production machine must not match a bounded release-count theme")
	}
	rolling, _ := ByName("Still Rolling Off the Line")
	if !rolling.Match(inProd) {
		t.Fatalf("in-production machine should match Still Rolling Off the Line")
	}
}

func TestThemeNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, th := range All() {
		if th.Name == "" || th.Match == nil {
			t.Fatalf("theme with empty name or nil predicate")
		}
		if seen[th.Name] {
			t.Fatalf("duplicate theme name %q", th.Name)
		}
		seen[th.Name] = true
	}
}
