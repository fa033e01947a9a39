// Command bench runs a synthetic query workload against the plan cache and
// exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlassian-forks/mongo/cache"
	pmet "github.com/atlassian-forks/mongo/metrics/prom"
	"github.com/atlassian-forks/mongo/plan"
	"github.com/atlassian-forks/mongo/plancache"
	"github.com/atlassian-forks/mongo/policy/twoq"
)

func main() {
	// ---- Flags ----
	var (
		budgetMB   = flag.Int64("budget_mb", 64, "cache budget (MiB)")
		partitions = flag.Int("partitions", 0, "number of partitions (0=auto)")
		policyName = flag.String("policy", "lru", "eviction policy: lru | 2q")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		shapes     = flag.Int("shapes", 100_000, "query shape space size")
		zipfS      = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV      = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		invalidate = flag.Duration("invalidate", 0, "bump the catalog epoch at this interval (0 = never)")

		workThreshold = flag.Uint64("work_threshold", cache.DefaultWorkThreshold, "work units below which a plan counts toward activation")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "plancache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	cfg := plancache.Config{
		BudgetBytes:   *budgetMB << 20,
		Partitions:    *partitions,
		WorkThreshold: *workThreshold,
		Metrics:       metrics,
	}
	switch *policyName {
	case "lru":
		// nil => recency with inactive preference by default
	case "2q":
		cfg.Policy = twoq.New[plancache.ShapeKey, *plan.Template](*shapes/4, *shapes/2)
	default:
		log.Fatalf("unknown policy: %q (use lru or 2q)", *policyName)
	}
	if *workThreshold == 0 {
		log.Fatal("work_threshold must be > 0")
	}
	pc := plancache.New(cfg)
	defer func() { _ = pc.Close() }()

	// ---- Epoch bumper: simulates catalog churn ----
	var epoch atomic.Uint64
	epoch.Store(1)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	if *invalidate > 0 {
		go func() {
			t := time.NewTicker(*invalidate)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					pc.InvalidateEpoch(epoch.Add(1))
				}
			}
		}()
	}

	// ---- Snapshot flags for goroutines ----
	shapesMax := uint64(*shapes - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var queries, hits, misses, compiles uint64

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, shapesMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				shape := localZipf.Uint64()
				key := plancache.NewShapeKey(shape, epoch.Load())
				atomic.AddUint64(&queries, 1)

				tmpl, ok := pc.Get(key)
				if ok {
					atomic.AddUint64(&hits, 1)
				} else {
					atomic.AddUint64(&misses, 1)
					atomic.AddUint64(&compiles, 1)
					tmpl = compile(shape)
					if _, err := pc.Insert(key, tmpl); err != nil {
						// Too large for a partition: run it uncached.
						tmpl = tmpl.Clone()
					}
				}

				// "Execute" the clone and report what it cost. Popular shapes
				// stay cheap so their entries activate; the long tail reports
				// expensive runs and stays inactive.
				work := shape * 7 % (2 * *workThreshold)
				pc.RecordWork(key, work)
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	q := atomic.LoadUint64(&queries)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)
	compilesN := atomic.LoadUint64(&compiles)

	hitRate := 0.0
	if q > 0 {
		hitRate = float64(hitsN) / float64(q) * 100
	}

	s := pc.Stats()
	fmt.Printf("policy=%s budget=%dMiB partitions=%d workers=%d shapes=%d dur=%v seed=%d\n",
		*policyName, *budgetMB, len(s.Partitions), workersN, *shapes, elapsed, seedBase)
	fmt.Printf("queries=%d (%.0f q/s)  compiles=%d  final-epoch=%d\n",
		q, float64(q)/elapsed.Seconds(), compilesN, epoch.Load())
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%  evictions=%d\n",
		hitsN, missesN, hitRate, s.Evictions)
	fmt.Printf("entries=%d  bytes=%d/%d\n", s.Entries, s.BytesUsed, s.BudgetBytes)
}

// compile builds a throwaway template whose shape (and so size) is derived
// from the shape id, giving the budget accounting a spread of entry sizes.
func compile(shape uint64) *plan.Template {
	b := plan.NewBuilder(plan.Metadata{Namespace: "bench.items", ParamSlots: int(shape%4) + 1})
	scan, err := b.Add(plan.Node{Kind: plan.IndexScan, Name: fmt.Sprintf("ix_%d", shape%16)})
	if err != nil {
		log.Fatal(err)
	}
	root, err := b.Add(plan.Node{Kind: plan.Fetch, Children: []plan.NodeID{scan}})
	if err != nil {
		log.Fatal(err)
	}
	// Deeper pipelines for some shapes.
	for i := uint64(0); i < shape%5; i++ {
		root, err = b.Add(plan.Node{Kind: plan.Filter, Children: []plan.NodeID{root}, Fields: []string{"status"}})
		if err != nil {
			log.Fatal(err)
		}
	}
	t, err := b.Build(root)
	if err != nil {
		log.Fatal(err)
	}
	return t
}
