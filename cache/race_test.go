package cache

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// A mixed workload of concurrent Insert/Get/RecordWork/Remove/Invalidate on
// random shapes. Should pass under `-race` without detector reports.
func TestRace_MixedWorkload(t *testing.T) {
	c := New[testKey, *testPlan](Options[testKey, *testPlan]{
		BudgetBytes: 1 << 20,
		Partitions:  32,
		Estimator:   exactEstimator,
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := uint64(50_000)
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			epoch := uint64(1)
			for time.Now().Before(deadline) {
				k := testKey{shape: r.Uint64() % keyspace, epoch: epoch}
				switch r.Intn(100) {
				case 0: // ~1% — epoch bump
					epoch++
					c.InvalidateEpoch(epoch)
				case 1, 2, 3, 4: // ~4% — Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9: // ~5% — RecordWork
					c.RecordWork(k, uint64(r.Intn(5000)))
				case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19: // ~10% — Insert
					_, _ = c.Insert(k, &testPlan{size: uint64(64 + r.Intn(512))})
				case 20: // ~1% — snapshot while traffic flows
					_ = c.Stats()
				default: // ~79% — Get
					c.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()

	s := c.Stats()
	require.LessOrEqual(t, s.BytesUsed, s.BudgetBytes)
}

// Workers confined to disjoint partitions must leave the same byte
// accounting a sequential run of the same operations would: partition
// independence may not lose updates.
func TestRace_DisjointPartitionAccounting(t *testing.T) {
	const (
		workers       = 8
		keysPerWorker = 200
		entrySize     = 100
	)

	// shape identity hashing: worker w owns shapes w, w+workers, w+2*workers...
	// modulo 'workers' partitions, giving each worker exactly one partition.
	c := New[testKey, *testPlan](Options[testKey, *testPlan]{
		BudgetBytes: workers * keysPerWorker * entrySize,
		Partitions:  workers,
		Estimator:   exactEstimator,
	})
	t.Cleanup(func() { _ = c.Close() })

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < keysPerWorker; i++ {
				k := testKey{shape: uint64(w + i*workers), epoch: 1}
				if _, err := c.Insert(k, &testPlan{size: entrySize}); err != nil {
					return err
				}
				// Overwrite half the keys once; replacement must not drift
				// the byte accounting.
				if i%2 == 0 {
					if _, err := c.Insert(k, &testPlan{size: entrySize}); err != nil {
						return err
					}
				}
				c.Get(k)
				c.RecordWork(k, 10)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, workers*keysPerWorker, c.Len())
	require.Equal(t, int64(workers*keysPerWorker*entrySize), c.BytesUsed())

	s := c.Stats()
	require.Equal(t, int64(workers*keysPerWorker), s.Hits)
	require.EqualValues(t, 0, s.Evictions)
}

// Concurrent hits on one key must produce clones that never alias.
func TestRace_ConcurrentClonesAreIndependent(t *testing.T) {
	c := newTestCache(1<<16, 1)
	t.Cleanup(func() { _ = c.Close() })

	k := testKey{shape: 1, epoch: 1}
	_, err := c.Insert(k, &testPlan{size: 64, stamp: "shared"})
	require.NoError(t, err)

	const goroutines = 64
	clones := make([]*testPlan, goroutines)

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		i := i
		g.Go(func() error {
			v, ok := c.Get(k)
			if !ok {
				return errors.New("unexpected miss")
			}
			v.stamp = "private" // mutation must stay private to this clone
			clones[i] = v
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[*testPlan]bool, goroutines)
	for _, v := range clones {
		require.NotNil(t, v)
		require.False(t, seen[v], "the same clone instance was returned twice")
		seen[v] = true
	}

	stored, ok := c.Get(k)
	require.True(t, ok)
	require.Equal(t, "shared", stored.stamp, "clone mutations leaked into the stored template")
}
