package cache

import (
	"errors"
	"testing"
)

// Fuzz basic Insert/Get/Remove semantics under arbitrary shapes, epochs, and
// sizes. Guards against panics and checks the core invariants: clone-on-fetch,
// byte budget, and removal.
func FuzzCache_InsertGetRemove(f *testing.F) {
	f.Add(uint64(0), uint64(0), uint16(1))
	f.Add(uint64(1), uint64(1), uint16(64))
	f.Add(uint64(1<<63), uint64(42), uint16(4096))
	f.Add(^uint64(0), ^uint64(0), ^uint16(0))

	const budget = int64(1 << 16)

	f.Fuzz(func(t *testing.T, shape, epoch uint64, size16 uint16) {
		c := New[testKey, *testPlan](Options[testKey, *testPlan]{
			BudgetBytes: budget,
			Partitions:  4,
			Estimator:   exactEstimator,
		})
		t.Cleanup(func() { _ = c.Close() })

		k := testKey{shape: shape, epoch: epoch}
		size := uint64(size16) + 1 // entries always have weight

		_, err := c.Insert(k, &testPlan{size: size, stamp: "v"})
		perPartition := budget / 4
		if int64(size) > perPartition {
			if !errors.Is(err, ErrEntryTooLarge) {
				t.Fatalf("oversized insert must fail, got err=%v", err)
			}
			if _, ok := c.Get(k); ok {
				t.Fatal("oversized entry must not be stored")
			}
			return
		}
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		v1, ok := c.Get(k)
		if !ok || v1.stamp != "v" {
			t.Fatalf("after Insert/Get: want hit with %q, got %+v ok=%v", "v", v1, ok)
		}
		v2, ok := c.Get(k)
		if !ok {
			t.Fatal("second Get must hit")
		}
		if v1 == v2 {
			t.Fatal("clone-on-fetch violated: same instance returned twice")
		}

		if got := c.BytesUsed(); got != int64(size) {
			t.Fatalf("BytesUsed: want %d, got %d", size, got)
		}

		if !c.Remove(k) {
			t.Fatal("Remove must return true")
		}
		if _, ok := c.Get(k); ok {
			t.Fatal("key must be absent after Remove")
		}
		if got := c.BytesUsed(); got != 0 {
			t.Fatalf("BytesUsed after Remove: want 0, got %d", got)
		}
	})
}
