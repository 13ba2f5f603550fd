package mana

import "fmt"

// Pool holds a player's floating mana. Colorless mana is tracked
// separately from the five colors.
type Pool struct {
	colored   map[Color]int
	colorless int
}

// NewPool returns an empty mana pool.
func NewPool() *Pool {
	return &Pool{colored: make(map[Color]int)}
}

// Add adds n mana of the given color to the pool.
func (p *Pool) Add(c Color, n int) {
	if n > 0 {
		p.colored[c] += n
	}
}

// AddColorless adds n colorless mana to the pool.
func (p *Pool) AddColorless(n int) {
	if n > 0 {
		p.colorless += n
	}
}

// Amount returns the mana of the given color in the pool.
func (p *Pool) Amount(c Color) int {
	return p.colored[c]
}

// Colorless returns the colorless mana in the pool.
func (p *Pool) Colorless() int {
	return p.colorless
}

// Total returns the total mana of all kinds in the pool.
func (p *Pool) Total() int {
	total := p.colorless
	for _, n := range p.colored {
		total += n
	}
	return total
}

// CanPay reports whether the pool covers the cost. X portions must
// already be folded into Generic via WithAdditionalGeneric before the
// check.
func (p *Pool) CanPay(cost Cost) bool {
	leftover := p.colorless
	for _, entry := range colorOrder {
		have := p.colored[entry.color]
		need := cost.Colored[entry.color]
		if have < need {
			return false
		}
		leftover += have - need
	}
	return leftover >= cost.Generic
}

// Pay removes the cost from the pool. Colored pips are paid with
// matching mana; the generic portion drains colorless first, then
// colors in WUBRG order. Returns an error and leaves the pool intact
// when the cost cannot be paid.
func (p *Pool) Pay(cost Cost) error {
	if !p.CanPay(cost) {
		return fmt.Errorf("cannot pay %s from pool %s", cost, p)
	}
	for color, need := range cost.Colored {
		p.colored[color] -= need
	}
	remaining := cost.Generic
	take := min(remaining, p.colorless)
	p.colorless -= take
	remaining -= take
	for _, entry := range colorOrder {
		if remaining == 0 {
			break
		}
		take = min(remaining, p.colored[entry.color])
		p.colored[entry.color] -= take
		remaining -= take
	}
	return nil
}

// Contents returns a copy of the colored amounts plus the colorless
// amount, for persistence. Zero entries are omitted.
func (p *Pool) Contents() (map[Color]int, int) {
	out := make(map[Color]int, len(p.colored))
	for c, n := range p.colored {
		if n > 0 {
			out[c] = n
		}
	}
	return out, p.colorless
}

// Empty clears the pool. Called when steps and phases end.
func (p *Pool) Empty() {
	p.colorless = 0
	for color := range p.colored {
		delete(p.colored, color)
	}
}

// String renders the pool contents, e.g. "2C 1G" or "empty".
func (p *Pool) String() string {
	s := ""
	if p.colorless > 0 {
		s = fmt.Sprintf("%dC", p.colorless)
	}
	for _, entry := range colorOrder {
		if n := p.colored[entry.color]; n > 0 {
			if s != "" {
				s += " "
			}
			s += fmt.Sprintf("%d%s", n, entry.symbol)
		}
	}
	if s == "" {
		return "empty"
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
