package mana

import "testing"

func TestPoolPay(t *testing.T) {
	p := NewPool()
	p.Add(Green, 2)
	p.Add(Red, 1)
	p.AddColorless(1)

	cost := MustParseCost("{2}{G}")
	if !p.CanPay(cost) {
		t.Fatal("pool should cover {2}{G}")
	}
	if err := p.Pay(cost); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if p.Total() != 1 {
		t.Errorf("leftover = %d, want 1", p.Total())
	}
	// Generic drained colorless first, then red before green.
	if p.Amount(Green) != 1 {
		t.Errorf("green left = %d, want 1", p.Amount(Green))
	}
}

func TestPoolCannotPay(t *testing.T) {
	p := NewPool()
	p.Add(Blue, 3)

	cost := MustParseCost("{1}{B}")
	if p.CanPay(cost) {
		t.Error("pool without black should not cover {1}{B}")
	}
	if err := p.Pay(cost); err == nil {
		t.Error("pay should fail")
	}
	if p.Amount(Blue) != 3 {
		t.Errorf("failed pay mutated pool: blue = %d", p.Amount(Blue))
	}
}

func TestPoolGenericOrder(t *testing.T) {
	p := NewPool()
	p.Add(White, 1)
	p.Add(Green, 1)

	if err := p.Pay(MustParseCost("{1}")); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	// Generic takes WUBRG order, so white goes first.
	if p.Amount(White) != 0 || p.Amount(Green) != 1 {
		t.Errorf("pool = %s, want 1G", p)
	}
}

func TestPoolEmpty(t *testing.T) {
	p := NewPool()
	p.Add(Red, 2)
	p.AddColorless(3)
	p.Empty()
	if p.Total() != 0 {
		t.Errorf("total after empty = %d, want 0", p.Total())
	}
	if p.String() != "empty" {
		t.Errorf("string = %q, want empty", p.String())
	}
}
