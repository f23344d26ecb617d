package filepool

import "testing"

func TestInventoryPushPopRoundTrip(t *testing.T) {
	inv := NewInventory(1024, 64, 512)

	inv.Push(dirtyKind, 5)
	inv.Push(cleanKind, 3)

	id, ok := inv.Pop(dirtyKind)
	if !ok || id != 5 {
		t.Fatalf("Pop(dirty) = %d, %v; want 5, true", id, ok)
	}
	if _, ok := inv.Pop(dirtyKind); ok {
		t.Fatal("Pop(dirty) on empty deque reported ok")
	}

	id, ok = inv.Pop(cleanKind)
	if !ok || id != 3 {
		t.Fatalf("Pop(clean) = %d, %v; want 3, true", id, ok)
	}
}

func TestInventoryNextIDMonotonic(t *testing.T) {
	inv := NewInventory(1024, 64, 512)

	first := inv.BumpNextID()
	second := inv.BumpNextID()
	if second != first+1 {
		t.Fatalf("BumpNextID returned %d then %d, want consecutive", first, second)
	}

	// Pushing a larger id must advance nextID past it.
	inv.Push(dirtyKind, 500)
	if next := inv.BumpNextID(); next <= 500 {
		t.Fatalf("BumpNextID returned %d after pushing id 500, want > 500", next)
	}
}

func TestInventorySetNextIDOnlyAdvances(t *testing.T) {
	inv := NewInventory(1024, 64, 512)
	inv.SetNextID(10)
	inv.SetNextID(3)
	if got := inv.BumpNextID(); got != 10 {
		t.Fatalf("BumpNextID = %d, want 10 (SetNextID must never move backwards)", got)
	}
}

func TestInventorySnapshotCounters(t *testing.T) {
	inv := NewInventory(1024, 64, 512)
	inv.Push(dirtyKind, 1)
	inv.Push(dirtyKind, 2)
	inv.Push(cleanKind, 3)
	inv.RecordAllocation(true)
	inv.RecordAllocation(false)
	inv.RecordClean(true)

	st := inv.Snapshot()
	if st.DirtyLeft != 2 || st.CleanLeft != 1 || st.PreallocatedLeft != 3 {
		t.Fatalf("unexpected snapshot counts: %+v", st)
	}
	if st.SuccessfulAllocations != 1 || st.FailedAllocations != 1 {
		t.Fatalf("unexpected allocation counters: %+v", st)
	}
	if st.SuccessfulCleans != 1 {
		t.Fatalf("unexpected clean counters: %+v", st)
	}
}

func TestInventoryClear(t *testing.T) {
	inv := NewInventory(1024, 64, 512)
	inv.Push(dirtyKind, 1)
	inv.Push(cleanKind, 2)
	inv.Clear()
	if st := inv.Snapshot(); st.PreallocatedLeft != 0 {
		t.Fatalf("snapshot after Clear reports %d ids left, want 0", st.PreallocatedLeft)
	}
}
