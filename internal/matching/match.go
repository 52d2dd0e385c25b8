package matching

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerer lower-cases names for caseless comparison. Lower-casing keeps "ß"
// distinct from "ss". A cases.Caser keeps state, so each filtering pass builds
// its own.
type lowerer struct {
	caser cases.Caser
}

func newLowerer() *lowerer {
	return &lowerer{caser: cases.Lower(language.Und)}
}

// lower returns the lower-cased name, or "" when the name is blank.
func (l *lowerer) lower(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return l.caser.String(s)
}

// lowerAll lower-cases every non-blank name, dropping blanks.
func (l *lowerer) lowerAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if lowered := l.lower(n); lowered != "" {
			out = append(out, lowered)
		}
	}
	return out
}

// fuzzyItemMatch reports whether two lower-cased item names contain one another.
// It favours recall: "furniture" matches "furniture - office" and short names
// like "toy" match anything containing them.
func fuzzyItemMatch(acceptedName, selected string) bool {
	if acceptedName == "" || selected == "" {
		return false
	}
	return strings.Contains(acceptedName, selected) || strings.Contains(selected, acceptedName)
}

type idSet map[int]struct{}

func (s idSet) add(id int) { s[id] = struct{}{} }

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}
