package testutil

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// ZipfGenerator generates keys following a Zipfian distribution.
type ZipfGenerator struct {
	zipf *big.Int
	seed int64
	n    int64
	s    float64
	v    float64
	x    float64
}

// NewZipfGenerator creates a new Zipfian generator.
// n: key space size, s: skewness (higher = more skew)
func NewZipfGenerator(n int64, s float64, seed int64) *ZipfGenerator {
	return &ZipfGenerator{
		n:    n,
		s:    s,
		seed: seed,
		zipf: big.NewInt(seed),
		v:    math.Pow(math.E, -1.0/s),
	}
}

// Next returns the next key in the Zipfian distribution.
func (z *ZipfGenerator) Next() int64 {
	// Simple inverse CDF method for Zipfian
	u := z.nextRandom()
	x := int64((float64(z.n) * u) + 1)
	// Apply power-law skew
	skewed := math.Pow(float64(x)/float64(z.n), z.s)
	return int64(skewed * float64(z.n))
}

func (z *ZipfGenerator) nextRandom() float64 {
	z.zipf.Add(z.zipf, big.NewInt(1103515245))
	z.zipf.Mul(z.zipf, big.NewInt(12345))
	z.zipf.Mod(z.zipf, big.NewInt(1<<31))
	return float64(z.zipf.Int64()) / (1 << 31)
}

// WorkloadType represents different workload patterns.
type WorkloadType int

const (
	WorkloadA WorkloadType = iota // 50% read, 50% update
	WorkloadB                     // 95% read, 5% update
	WorkloadC                     // 100% read
	WorkloadE                     // 95% read, 5% insert
	WorkloadF                     // 50% read, 50% read-modify-write
)

// WorkloadGenerator generates operations according to a workload spec.
type WorkloadGenerator struct {
	rng       *RandSeeded
	keyGen    *ZipfGenerator
	workload  WorkloadType
	valueSize int
	numOps    int
	opCount   int
	keyCount  int64
}

// NewWorkloadGenerator creates a new workload generator.
func NewWorkloadGenerator(workload WorkloadType, seed int64, numKeys int64, valueSize int, skew float64) *WorkloadGenerator {
	return &WorkloadGenerator{
		rng:       NewRandSeeded(seed),
		keyGen:    NewZipfGenerator(numKeys, skew, seed),
		workload:  workload,
		valueSize: valueSize,
		numOps:    1000000, // default
		keyCount:  numKeys,
	}
}

// SetNumOps sets the total number of operations to generate.
func (wg *WorkloadGenerator) SetNumOps(n int) {
	wg.numOps = n
}

// Next generates the next operation type and key/value.
func (wg *WorkloadGenerator) Next() (op string, key []byte, val []byte, err error) {
	if wg.opCount >= wg.numOps {
		return "", nil, nil, fmt.Errorf("workload exhausted")
	}
	wg.opCount++

	keyIdx := wg.keyGen.Next()
	key = make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(keyIdx))

	var shouldRead, shouldUpdate bool
	switch wg.workload {
	case WorkloadA:
		shouldRead = wg.rng.Float64() < 0.5
		shouldUpdate = !shouldRead
	case WorkloadB:
		shouldRead = wg.rng.Float64() < 0.95
		shouldUpdate = !shouldRead
	case WorkloadC:
		shouldRead = true
		shouldUpdate = false
	case WorkloadE:
		shouldRead = wg.rng.Float64() < 0.95
		shouldUpdate = !shouldRead
	case WorkloadF:
		shouldUpdate = wg.rng.Float64() < 0.5
		shouldRead = false // RMW reads internally
	}

	if shouldUpdate {
		op = "PUT"
		val = make([]byte, wg.valueSize)
		rand.Read(val)
	} else {
		op = "GET"
	}

	return op, key, val, nil
}

// NextInt32Key returns the next key as a signed 32-bit integer,
// independent of opCount/numOps bookkeeping, for harnesses driving a
// Tree[int32, V] where FindSIMD's fast path applies.
func (wg *WorkloadGenerator) NextInt32Key() int32 {
	return int32(wg.keyGen.Next())
}

// RandSeeded is a simple seeded RNG for deterministic randomness.
type RandSeeded struct {
	state int64
}

func NewRandSeeded(seed int64) *RandSeeded {
	return &RandSeeded{state: seed}
}

func (r *RandSeeded) Int() int64 {
	r.state = ((r.state * 1103515245) + 12345) & 0x7fffffff
	return r.state
}

func (r *RandSeeded) Float64() float64 {
	return float64(r.Int()) / (1 << 31)
}
