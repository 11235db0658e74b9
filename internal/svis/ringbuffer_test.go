package svis

import "testing"

func TestRingOverflowEvictsOldest(t *testing.T) {
	r := newRing[int]("test", 3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Push(4)

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	got := r.Snapshot()
	want := []int{2, 3, 4}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Snapshot()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestRingNeverExceedsCapacity(t *testing.T) {
	r := newRing[int]("test", 5)
	for i := 0; i < 100; i++ {
		r.Push(i)
		if r.Len() > r.Cap() {
			t.Fatalf("Len() = %d exceeds Cap() = %d after push %d", r.Len(), r.Cap(), i)
		}
	}
}

func TestRingRemoveAtPreservesOrder(t *testing.T) {
	r := newRing[int]("test", 5)
	for i := 1; i <= 4; i++ {
		r.Push(i)
	}
	r.RemoveAt(1) // remove value 2

	got := r.Snapshot()
	want := []int{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() = %v, want %v", got, want)
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Snapshot()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestRingPopFrontFIFO(t *testing.T) {
	r := newRing[int]("test", 3)
	r.Push(10)
	r.Push(20)

	if v := r.PopFront(); v != 10 {
		t.Errorf("PopFront() = %d, want 10", v)
	}
	if v := r.PopFront(); v != 20 {
		t.Errorf("PopFront() = %d, want 20", v)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRingClear(t *testing.T) {
	r := newRing[int]("test", 3)
	r.Push(1)
	r.Push(2)
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Clear(), want 0", r.Len())
	}
}
