package cache

import (
	"math/rand"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a hit/insert/record mix against a warm cache.
// RunParallel spawns GOMAXPROCS goroutines; shapes are drawn from a hot
// keyspace so partition locks actually contend.
func benchmarkMix(b *testing.B, readsPct int) {
	c := New[testKey, *testPlan](Options[testKey, *testPlan]{
		BudgetBytes: 64 << 20,
		Estimator:   exactEstimator,
	})
	b.Cleanup(func() { _ = c.Close() })

	// Preload to get a realistic hit-rate.
	for i := uint64(0); i < 1<<15; i++ {
		_, _ = c.Insert(testKey{shape: i, epoch: 1}, &testPlan{size: 256})
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := uint64(1<<16 - 1) // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := uint64(0)
		for pb.Next() {
			k := testKey{shape: i & keyMask, epoch: 1}
			if r.Intn(100) < readsPct {
				if _, ok := c.Get(k); ok {
					c.RecordWork(k, 100)
				}
			} else {
				_, _ = c.Insert(k, &testPlan{size: 256})
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// BenchmarkCache_StatsUnderLoad measures snapshot cost while one background
// writer keeps partitions warm.
func BenchmarkCache_StatsUnderLoad(b *testing.B) {
	c := New[testKey, *testPlan](Options[testKey, *testPlan]{
		BudgetBytes: 8 << 20,
		Partitions:  16,
		Estimator:   exactEstimator,
	})
	b.Cleanup(func() { _ = c.Close() })

	for i := uint64(0); i < 4096; i++ {
		_, _ = c.Insert(testKey{shape: i, epoch: 1}, &testPlan{size: 512})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Stats()
	}
}
