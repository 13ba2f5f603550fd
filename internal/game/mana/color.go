package mana

import "strings"

// Color is a single mana color flag.
type Color uint8

const (
	White Color = 1 << iota
	Blue
	Black
	Red
	Green
)

// ColorSet is a union of colors. Combination and membership tests are
// O(1); display follows the canonical WUBRG order, not insertion order.
type ColorSet uint8

// colorOrder is the canonical display order.
var colorOrder = []struct {
	color  Color
	symbol string
}{
	{White, "W"},
	{Blue, "U"},
	{Black, "B"},
	{Red, "R"},
	{Green, "G"},
}

// Add returns the union of the set and the given color.
func (cs ColorSet) Add(c Color) ColorSet {
	return cs | ColorSet(c)
}

// Union returns the union of two sets.
func (cs ColorSet) Union(other ColorSet) ColorSet {
	return cs | other
}

// Contains reports whether the set includes the color.
func (cs ColorSet) Contains(c Color) bool {
	return cs&ColorSet(c) != 0
}

// IsColorless reports whether the set is empty.
func (cs ColorSet) IsColorless() bool {
	return cs == 0
}

// Count returns the number of colors in the set.
func (cs ColorSet) Count() int {
	n := 0
	for _, entry := range colorOrder {
		if cs.Contains(entry.color) {
			n++
		}
	}
	return n
}

// String renders the set in canonical WUBRG order, e.g. "WU" or "C" for
// the empty set.
func (cs ColorSet) String() string {
	if cs.IsColorless() {
		return "C"
	}
	var b strings.Builder
	for _, entry := range colorOrder {
		if cs.Contains(entry.color) {
			b.WriteString(entry.symbol)
		}
	}
	return b.String()
}

// ParseColor maps a single symbol to its color.
func ParseColor(symbol string) (Color, bool) {
	switch strings.ToUpper(symbol) {
	case "W":
		return White, true
	case "U":
		return Blue, true
	case "B":
		return Black, true
	case "R":
		return Red, true
	case "G":
		return Green, true
	}
	return 0, false
}

// ParseColorSet builds a set from a symbol string like "WUG".
// Unknown symbols are ignored.
func ParseColorSet(s string) ColorSet {
	var cs ColorSet
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'W':
			cs = cs.Add(White)
		case 'U':
			cs = cs.Add(Blue)
		case 'B':
			cs = cs.Add(Black)
		case 'R':
			cs = cs.Add(Red)
		case 'G':
			cs = cs.Add(Green)
		}
	}
	return cs
}
