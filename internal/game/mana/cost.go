package mana

import (
	"fmt"
	"strconv"
	"strings"
)

// Cost is a parsed mana cost. Generic holds the numeric portion,
// Colored the per-color pip counts, and XCount the number of {X}
// symbols. Hybrid and phyrexian symbols are not supported.
type Cost struct {
	Generic int
	Colored map[Color]int
	XCount  int
}

// ParseCost parses a cost string like "{2}{G}{G}" or "{X}{R}".
// An empty string is a zero cost.
func ParseCost(s string) (Cost, error) {
	cost := Cost{Colored: make(map[Color]int)}
	if s == "" {
		return cost, nil
	}
	rest := s
	for len(rest) > 0 {
		if rest[0] != '{' {
			return Cost{}, fmt.Errorf("invalid mana cost %q: expected '{' at %q", s, rest)
		}
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return Cost{}, fmt.Errorf("invalid mana cost %q: unterminated symbol", s)
		}
		sym := rest[1:end]
		rest = rest[end+1:]
		switch sym {
		case "W":
			cost.Colored[White]++
		case "U":
			cost.Colored[Blue]++
		case "B":
			cost.Colored[Black]++
		case "R":
			cost.Colored[Red]++
		case "G":
			cost.Colored[Green]++
		case "X":
			cost.XCount++
		case "C":
			// Colorless pips pay from any mana here.
			cost.Generic++
		default:
			n, err := strconv.Atoi(sym)
			if err != nil || n < 0 {
				return Cost{}, fmt.Errorf("invalid mana cost %q: unknown symbol {%s}", s, sym)
			}
			cost.Generic += n
		}
	}
	return cost, nil
}

// MustParseCost is ParseCost for known-good literals, panicking on error.
func MustParseCost(s string) Cost {
	cost, err := ParseCost(s)
	if err != nil {
		panic(err)
	}
	return cost
}

// ManaValue returns the converted cost. {X} counts as zero.
func (c Cost) ManaValue() int {
	total := c.Generic
	for _, n := range c.Colored {
		total += n
	}
	return total
}

// Colors returns the set of colors appearing in the cost.
func (c Cost) Colors() ColorSet {
	var cs ColorSet
	for color, n := range c.Colored {
		if n > 0 {
			cs = cs.Add(color)
		}
	}
	return cs
}

// WithAdditionalGeneric returns a copy of the cost with n extra generic
// mana added. Used for surcharges such as the commander tax.
func (c Cost) WithAdditionalGeneric(n int) Cost {
	out := Cost{Generic: c.Generic + n, Colored: make(map[Color]int, len(c.Colored)), XCount: c.XCount}
	for color, count := range c.Colored {
		out.Colored[color] = count
	}
	return out
}

// IsZero reports whether the cost requires no mana.
func (c Cost) IsZero() bool {
	return c.Generic == 0 && c.XCount == 0 && len(c.Colored) == 0
}

// String renders the cost in canonical order: generic first, then
// colored pips in WUBRG order. A zero cost renders as "{0}".
func (c Cost) String() string {
	var b strings.Builder
	for i := 0; i < c.XCount; i++ {
		b.WriteString("{X}")
	}
	if c.Generic > 0 {
		fmt.Fprintf(&b, "{%d}", c.Generic)
	}
	for _, entry := range colorOrder {
		for i := 0; i < c.Colored[entry.color]; i++ {
			b.WriteString("{" + entry.symbol + "}")
		}
	}
	if b.Len() == 0 {
		return "{0}"
	}
	return b.String()
}
