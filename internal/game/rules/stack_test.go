package rules

import "testing"

func TestStackLIFO(t *testing.T) {
	players := testPlayers(1)
	sm := NewStackManager()

	if !sm.IsEmpty() {
		t.Fatal("new stack should be empty")
	}

	sm.Push(StackItem{ID: "a", Controller: players[0], Description: "first"})
	sm.Push(StackItem{ID: "b", Controller: players[0], Description: "second"})

	top, ok := sm.Peek()
	if !ok || top.ID != "b" {
		t.Fatalf("expected peek to return b, got %q (ok=%v)", top.ID, ok)
	}

	item, err := sm.Pop()
	if err != nil || item.ID != "b" {
		t.Fatalf("expected pop b, got %q (err=%v)", item.ID, err)
	}
	item, err = sm.Pop()
	if err != nil || item.ID != "a" {
		t.Fatalf("expected pop a, got %q (err=%v)", item.ID, err)
	}
	if _, err := sm.Pop(); err == nil {
		t.Fatal("pop of empty stack must error")
	}
}

func TestStackList(t *testing.T) {
	sm := NewStackManager()
	sm.Push(StackItem{ID: "bottom"})
	sm.Push(StackItem{ID: "top"})

	items := sm.List()
	if len(items) != 2 || items[0].ID != "bottom" || items[1].ID != "top" {
		t.Fatalf("unexpected list order: %+v", items)
	}

	// Mutating the copy must not affect the stack.
	items[0].ID = "mutated"
	if got, _ := sm.Peek(); got.ID != "top" {
		t.Fatalf("stack mutated through List copy, got %q", got.ID)
	}
}

func TestStackRemoveWhere(t *testing.T) {
	players := testPlayers(2)
	sm := NewStackManager()

	removedHook := 0
	sm.Push(StackItem{ID: "keep-1", Controller: players[0]})
	sm.Push(StackItem{ID: "drop-1", Controller: players[1], OnRemove: func() { removedHook++ }})
	sm.Push(StackItem{ID: "keep-2", Controller: players[0]})
	sm.Push(StackItem{ID: "drop-2", Controller: players[1]})

	removed := sm.RemoveWhere(func(item StackItem) bool {
		return item.Controller == players[1]
	})

	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(removed))
	}
	if removedHook != 1 {
		t.Fatalf("expected OnRemove hook fired once, got %d", removedHook)
	}
	if sm.Len() != 2 {
		t.Fatalf("expected 2 remaining, got %d", sm.Len())
	}
	if top, _ := sm.Peek(); top.ID != "keep-2" {
		t.Fatalf("expected keep-2 on top, got %q", top.ID)
	}
}
