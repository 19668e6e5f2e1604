package rules

import "testing"

type testEvent struct {
	Type   string
	UnitID string
}

func TestTriggerManagerHandle(t *testing.T) {
	manager := NewTriggerManager[testEvent]()

	var fired []string
	manager.Register(Trigger[testEvent]{
		OwnerID:   "archer",
		EventType: "UNIT_DEPLOYED",
		Condition: func(e testEvent) bool { return e.UnitID == "archer" },
		Fire:      func(e testEvent) { fired = append(fired, "archer:"+e.UnitID) },
	})
	manager.Register(Trigger[testEvent]{
		OwnerID:   "watcher",
		EventType: "UNIT_DEPLOYED",
		Fire:      func(e testEvent) { fired = append(fired, "watcher:"+e.UnitID) },
	})

	n := manager.Handle("UNIT_DEPLOYED", testEvent{Type: "UNIT_DEPLOYED", UnitID: "archer"})
	if n != 2 {
		t.Fatalf("expected 2 triggers to fire, got %d", n)
	}
	if len(fired) != 2 || fired[0] != "archer:archer" || fired[1] != "watcher:archer" {
		t.Fatalf("unexpected fire order %v", fired)
	}

	if n := manager.Handle("UNIT_DIED", testEvent{Type: "UNIT_DIED"}); n != 0 {
		t.Fatalf("expected no triggers for other event type, got %d", n)
	}
}

func TestTriggerManagerOnce(t *testing.T) {
	manager := NewTriggerManager[testEvent]()
	count := 0
	manager.Register(Trigger[testEvent]{
		EventType: "TURN_CHANGED",
		Once:      true,
		Fire:      func(testEvent) { count++ },
	})

	manager.Handle("TURN_CHANGED", testEvent{})
	manager.Handle("TURN_CHANGED", testEvent{})
	if count != 1 {
		t.Fatalf("expected once trigger to fire once, got %d", count)
	}
	if manager.Len() != 0 {
		t.Fatalf("expected once trigger to be removed")
	}
}

func TestTriggerManagerUnregisterOwner(t *testing.T) {
	manager := NewTriggerManager[testEvent]()
	id := manager.Register(Trigger[testEvent]{OwnerID: "a", EventType: "X"})
	manager.Register(Trigger[testEvent]{OwnerID: "a", EventType: "Y"})
	manager.Register(Trigger[testEvent]{OwnerID: "b", EventType: "X"})

	if id == "" {
		t.Fatalf("expected generated id")
	}
	if manager.CountOwner("a") != 2 {
		t.Fatalf("expected 2 triggers for a")
	}
	if removed := manager.UnregisterOwner("a"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	manager.Unregister("unknown")
	if manager.Len() != 1 {
		t.Fatalf("expected 1 trigger left, got %d", manager.Len())
	}
}
