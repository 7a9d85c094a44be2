package themes

import (
	"strings"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
)

// Theme is a named predicate over a machine's attributes and tags. Themes are
// fixed configuration: the set never changes at runtime and predicates hold
// no state.
type Theme struct {
	Name  string
	Match func(domain.Machine) bool
}

var all = []Theme{
	{"70s Battle", yearBetween(1970, 1979)},
	{"80s Classics", yearBetween(1980, 1989)},
	{"90s Favorites", yearBetween(1990, 1999)},
	{"Late 90s Hits (1995-1999)", yearBetween(1995, 1999)},

	{"Games with No Ramps", func(m domain.Machine) bool { return m.Details.Ramps == 0 }},
	{"Ramps Galore (3 or More)", func(m domain.Machine) bool { return m.Details.Ramps >= 3 }},

	{"Zero Multiball Madness", func(m domain.Machine) bool { return m.Details.Multiball == 0 }},
	{"Six-Ball Mayhem", func(m domain.Machine) bool { return m.Details.Multiball == 6 }},
	{"5-Ball (or More) Multiball", func(m domain.Machine) bool { return m.Details.Multiball >= 5 }},

	{"Three-Flipper Club", func(m domain.Machine) bool { return m.Details.Flippers == 3 }},
	{"Four-Flipper Frenzy", func(m domain.Machine) bool { return m.Details.Flippers == 4 }},
	{"Flipper Overload (4 or More)", func(m domain.Machine) bool { return m.Details.Flippers >= 4 }},
	{"Less Than 3 Flippers", func(m domain.Machine) bool { return m.Details.Flippers < 3 }},

	{"Dot Matrix Heroes", displayIs("Dot Matrix")},
	{"LCD Display Crew", displayContains("LCD")},
	{"Alphanumeric Retro", displayIs("Alphanumeric")},
	{"Digital Old-School", displayIs("Digital")},
	{"Mechanical Reels Throwback", displayIs("Mechanical Reels")},

	{"Solid State Throwbacks", func(m domain.Machine) bool {
		return m.Details.Type == "Solid state" && m.Details.ReleaseYear > 0 && m.Details.ReleaseYear < 2000
	}},
	{"EM Nostalgia", func(m domain.Machine) bool { return m.Details.Type == "Electro-mechanical" }},

	{"Bally Originals", manufacturerContains("Bally")},
	{"Gottlieb Gems", manufacturerContains("Gottlieb")},
	{"American Pinball All-Stars", func(m domain.Machine) bool { return m.Details.Manufacturer == "American Pinball" }},
	{"Solid State Stern", func(m domain.Machine) bool {
		return strings.Contains(m.Details.Manufacturer, "Stern") && m.Details.Type == "Solid state"
	}},
	{"Williams System 11 Showcase", func(m domain.Machine) bool {
		return strings.Contains(m.Details.Generation, "Williams System 11")
	}},

	{"Small Release Runs (500 or Fewer)", func(m domain.Machine) bool {
		return !m.Details.InProduction && m.Details.ReleaseCount > 0 && m.Details.ReleaseCount <= 500
	}},
	{"Under 2,000 Release Count", func(m domain.Machine) bool {
		return !m.Details.InProduction && m.Details.ReleaseCount > 0 && m.Details.ReleaseCount < 2000
	}},
	{"Pinball Giants (Over 10,000 Made)", func(m domain.Machine) bool {
		return m.Details.ReleaseCount > 10000
	}},
	{"Still Rolling Off the Line", func(m domain.Machine) bool { return m.Details.InProduction }},

	{"Widebodies", func(m domain.Machine) bool { return strings.Contains(m.Details.Cabinet, "Wide") }},

	{"Music & Rock", anyTag("music", "rock")},
	{"Horror & Monsters", anyTag("horror", "monsters")},
	{"Treasure & Adventure", anyTag("adventure")},
	{"Fantasy Realms", anyTag("fantasy")},
	{"Movie Licensed", func(m domain.Machine) bool { return m.HasTag("movie") && m.HasTag("licensed") }},
	{"Movie Marathon", anyTag("movie")},
	{"Motor Sports", anyTag("racing")},
	{"Futuristic Sci-Fi", anyTag("sci-fi")},
	{"Space Explorers", anyTag("space")},
	{"TV Series Ties", anyTag("television")},
	{"Sports Galore", anyTag("sports")},
	{"Outdoor Sports", anyTag("outdoor", "sports")},
	{"Comedy & Humor", anyTag("comedy")},
	{"Mythology Matters", anyTag("mythology")},
	{"Swords & Sorcery", anyTag("fantasy", "Norse mythology", "mythology")},
	{"Food Frenzy", anyTag("food", "BBQ", "festival")},
	{"BBQ & Brew", anyTag("BBQ", "food", "beer", "festival")},
	{"Sky High Adventures", anyTag("aviation", "skydiving", "hang gliding")},
}

// All returns the fixed theme set. Callers must not mutate the slice.
func All() []Theme { return all }

// ByName returns the theme with the given name, if present.
func ByName(name string) (Theme, bool) {
	for _, t := range all {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return Theme{}, false
}

func yearBetween(lo, hi int) func(domain.Machine) bool {
	return func(m domain.Machine) bool {
		return m.Details.ReleaseYear >= lo && m.Details.ReleaseYear <= hi
	}
}

func displayIs(want string) func(domain.Machine) bool {
	return func(m domain.Machine) bool { return m.Details.DisplayType == want }
}

func displayContains(sub string) func(domain.Machine) bool {
	return func(m domain.Machine) bool { return strings.Contains(m.Details.DisplayType, sub) }
}

func manufacturerContains(sub string) func(domain.Machine) bool {
	return func(m domain.Machine) bool { return strings.Contains(m.Details.Manufacturer, sub) }
}

func anyTag(tags ...string) func(domain.Machine) bool {
	return func(m domain.Machine) bool { return m.HasAnyTag(tags...) }
}
