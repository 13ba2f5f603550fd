// Package counters tracks named counters on permanents and derives the
// power/toughness boost from +N/+N and -N/-N style counter names.
package counters

import (
	"sort"
	"strconv"
	"strings"
)

// Common counter names.
const (
	PlusOnePlusOne   = "+1/+1"
	MinusOneMinusOne = "-1/-1"
	Loyalty          = "loyalty"
	Charge           = "charge"
)

// Counters is a multiset of named counters on a single object.
type Counters map[string]int

// New returns an empty counter set.
func New() Counters {
	return make(Counters)
}

// Add places n counters of the given name. Non-positive n is a no-op.
func (c Counters) Add(name string, n int) {
	if n > 0 {
		c[name] += n
	}
}

// Remove takes up to n counters of the given name, returning how many
// were actually removed.
func (c Counters) Remove(name string, n int) int {
	if n <= 0 {
		return 0
	}
	have := c[name]
	if n > have {
		n = have
	}
	if n == have {
		delete(c, name)
	} else {
		c[name] -= n
	}
	return n
}

// Count returns the number of counters with the given name.
func (c Counters) Count(name string) int {
	return c[name]
}

// Total returns the total number of counters of all names.
func (c Counters) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Boost returns the aggregate power and toughness modification from all
// P/T counters, e.g. three "+1/+1" and one "-1/-1" yields (2, 2).
func (c Counters) Boost() (power, toughness int) {
	for name, n := range c {
		dp, dt, ok := parsePT(name)
		if ok {
			power += dp * n
			toughness += dt * n
		}
	}
	return power, toughness
}

// Names returns the counter names in sorted order.
func (c Counters) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (c Counters) Clone() Counters {
	out := make(Counters, len(c))
	for name, n := range c {
		out[name] = n
	}
	return out
}

// parsePT parses counter names of the form "+1/+1" or "-2/-2".
func parsePT(name string) (power, toughness int, ok bool) {
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err := strconv.Atoi(strings.TrimPrefix(parts[0], "+"))
	if err != nil {
		return 0, 0, false
	}
	t, err := strconv.Atoi(strings.TrimPrefix(parts[1], "+"))
	if err != nil {
		return 0, 0, false
	}
	return p, t, true
}
