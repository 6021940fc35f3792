package metrics

import (
	"encoding/json"
	"io"
	"os"
)

// Config holds tree configuration: arena sizing, fan-out, a preferred
// find variant, and a SIMD diagnostics flag.
type Config struct {
	// ArenaCapacityBytes bounds the arena's backing storage. Once
	// exhausted, Insert fails with arena.ErrOutOfArena; the arena never
	// grows to recover.
	ArenaCapacityBytes int `json:"arena_capacity_bytes"`

	// Fanout is the tree's fixed fan-out M, 4 <= M <= bptree.MaxFanout.
	Fanout int `json:"fanout"`

	// DefaultFindVariant names a preferred Find: "linear", "binary", or
	// "simd". It is stored and round-tripped only: the demo CLI always
	// runs all three variants, and the benchmark harness picks variants
	// from its -find flag.
	DefaultFindVariant string `json:"default_find_variant"`

	// SIMDDiagnostics is stored and round-tripped only. The tree does
	// not read it: it logs the one-time AVX2 line on the first FindSIMD
	// call whatever this is set to. FindSIMD's code path never depends
	// on it; the portable chunked scan runs regardless.
	SIMDDiagnostics bool `json:"simd_diagnostics"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ArenaCapacityBytes: 64 << 20, // 64 MiB
		Fanout:             256,
		DefaultFindVariant: "binary",
		SIMDDiagnostics:    true,
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadConfigFromReader(f)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
