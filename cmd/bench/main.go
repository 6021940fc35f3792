package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/arthurzhang/arbtree/bptree"
	"github.com/arthurzhang/arbtree/internal/arena"
	"github.com/arthurzhang/arbtree/internal/metrics"
	"github.com/arthurzhang/arbtree/internal/testutil"
)

var (
	workloadStr = flag.String("workload", "A", "Workload type (A,B,C,E,F)")
	numKeys     = flag.Int64("num-keys", 100000, "Number of distinct keys")
	valueSize   = flag.Int("value-size", 16, "Value size in bytes")
	numOps      = flag.Int("num-ops", 200000, "Number of operations")
	skew        = flag.Float64("skew", 0.99, "Zipfian skew parameter")
	fanout      = flag.Int("fanout", 256, "Tree fan-out M")
	arenaMB     = flag.Int("arena-mb", 256, "Arena capacity in MiB")
	seed        = flag.Int64("seed", 12345, "Random seed")
	variant     = flag.String("find", "all", "Find variant to benchmark: linear, binary, simd, all")
	outDir      = flag.String("out", ".", "Output directory for the log file")
)

func main() {
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create out dir: %v\n", err)
		os.Exit(1)
	}
	logger, err := testutil.SetupLogging(fmt.Sprintf("%s/bench.log", *outDir), testutil.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	workload := parseWorkload(*workloadStr)
	logger.Info("starting benchmark")
	logger.Info("  workload: %s", *workloadStr)
	logger.Info("  num keys: %d", *numKeys)
	logger.Info("  value size: %d bytes", *valueSize)
	logger.Info("  num ops: %d", *numOps)
	logger.Info("  skew: %.2f", *skew)
	logger.Info("  fanout: %d", *fanout)
	logger.Info("  seed: %d", *seed)

	nodes, err := arena.New[bptree.Node[int32, string]](*arenaMB << 20)
	if err != nil {
		logger.Error("failed to create arena: %v", err)
		os.Exit(1)
	}
	tree, err := bptree.NewTree[int32, string](nodes, *fanout)
	if err != nil {
		logger.Error("failed to create tree: %v", err)
		os.Exit(1)
	}
	m := metrics.NewMetrics()
	tree.SetMetrics(m)

	baseline := make(map[int32]string)
	var sortedKeys []int32

	gen := testutil.NewWorkloadGenerator(workload, *seed, *numKeys, *valueSize, *skew)
	gen.SetNumOps(*numOps)

	timer := testutil.NewTimer("benchmark")
	stats := map[string]*testutil.BenchStats{
		"linear": testutil.NewBenchStats(),
		"binary": testutil.NewBenchStats(),
		"simd":   testutil.NewBenchStats(),
		"map":    testutil.NewBenchStats(),
		"slice":  testutil.NewBenchStats(),
	}

	for i := 0; i < *numOps; i++ {
		op, _, _, err := gen.Next()
		if err != nil {
			break
		}
		key := gen.NextInt32Key()

		switch op {
		case "PUT":
			value := fmt.Sprintf("%0*d", *valueSize, i)

			if err := tree.Insert(key, value); err != nil {
				logger.Error("insert failed: %v", err)
				goto done
			}
			if _, exists := baseline[key]; !exists {
				sortedKeys = insertSorted(sortedKeys, key)
			}
			baseline[key] = value

		case "GET":
			runFind(tree, stats, key, *variant)
			runBaseline(baseline, sortedKeys, stats, key)
		}
	}

done:
	timer.Log(logger)
	logger.Info("tree stats:")
	stats["linear"].Print(logger)
	stats["binary"].Print(logger)
	stats["simd"].Print(logger)

	logger.Info("baseline stats (unordered-map and sorted-slice binary search comparisons):")
	stats["map"].Print(logger)
	stats["slice"].Print(logger)

	logger.Info("arena: %s", nodes.String())
	logger.Info("node allocations: %s", m.NodeAllocCount.String())
	logger.Info("benchmark complete")
}

// runFind exercises the requested find variant(s), recording latency
// for each.
func runFind(tree *bptree.Tree[int32, string], stats map[string]*testutil.BenchStats, key int32, which string) {
	if which == "linear" || which == "all" {
		start := time.Now()
		tree.FindLinear(key)
		stats["linear"].Record("get", time.Since(start))
	}
	if which == "binary" || which == "all" {
		start := time.Now()
		tree.FindBinary(key)
		stats["binary"].Record("get", time.Since(start))
	}
	if which == "simd" || which == "all" {
		start := time.Now()
		tree.FindSIMD(key)
		stats["simd"].Record("get", time.Since(start))
	}
}

// runBaseline times two reference comparisons: a plain Go map
// (unordered) and a sorted-slice binary search (ordered), both
// against the same key.
func runBaseline(baseline map[int32]string, sortedKeys []int32, stats map[string]*testutil.BenchStats, key int32) {
	start := time.Now()
	_, _ = baseline[key]
	stats["map"].Record("get", time.Since(start))

	start = time.Now()
	i := sort.Search(len(sortedKeys), func(i int) bool { return sortedKeys[i] >= key })
	_ = i < len(sortedKeys) && sortedKeys[i] == key
	stats["slice"].Record("get", time.Since(start))
}

func insertSorted(keys []int32, key int32) []int32 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	keys = append(keys, 0)
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}

func parseWorkload(s string) testutil.WorkloadType {
	switch s {
	case "A":
		return testutil.WorkloadA
	case "B":
		return testutil.WorkloadB
	case "C":
		return testutil.WorkloadC
	case "E":
		return testutil.WorkloadE
	case "F":
		return testutil.WorkloadF
	default:
		return testutil.WorkloadA
	}
}
