// Package config holds the machine layout shared by the assembler, the
// loader and the emulator.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Machine describes the simulated address space and the trap outputs.
type Machine struct {
	// MemorySize is the physical buffer size in bytes.
	// Default: 8192.
	MemorySize uint32 `yaml:"memory_size" json:"memory_size"`

	// DataOffset is the first logical address of the data segment.
	// Default: 0x10000000.
	DataOffset uint32 `yaml:"data_offset" json:"data_offset"`

	// LowRegionSize is the number of physical bytes reserved for logical
	// addresses below DataOffset. Data addresses are translated to
	// address - DataOffset + LowRegionSize. Default: 4096.
	LowRegionSize uint32 `yaml:"low_region_size" json:"low_region_size"`

	// TextBase is the first address of the text segment and the initial PC.
	// Default: 0.
	TextBase uint32 `yaml:"text_base" json:"text_base"`

	// DumpWords is how many data words the trap handler prints after the
	// register dump. Default: 10.
	DumpWords int `yaml:"dump_words" json:"dump_words"`

	// SnapshotPath is where the trap handler persists non-zero data words.
	// An empty path disables the snapshot. Default: "data_out.mem".
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`

	// MaxCycles bounds the run. 0 means run until the trap.
	MaxCycles uint64 `yaml:"max_cycles" json:"max_cycles"`
}

// Default returns the stock machine layout.
func Default() *Machine {
	return &Machine{
		MemorySize:    8192,
		DataOffset:    0x10000000,
		LowRegionSize: 4096,
		TextBase:      0,
		DumpWords:     10,
		SnapshotPath:  "data_out.mem",
		MaxCycles:     0,
	}
}

// Load reads a Machine from a YAML file. JSON files are accepted as well
// since JSON is a subset of YAML. Missing keys keep their defaults.
func Load(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse machine config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the Machine to a YAML file.
func (c *Machine) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize machine config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write machine config file: %w", err)
	}

	return nil
}

// Validate checks that the layout is usable.
func (c *Machine) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	if c.MemorySize%4 != 0 {
		return fmt.Errorf("memory_size must be a multiple of 4")
	}
	if c.LowRegionSize%4 != 0 {
		return fmt.Errorf("low_region_size must be a multiple of 4")
	}
	if c.LowRegionSize >= c.MemorySize {
		return fmt.Errorf("low_region_size must be < memory_size")
	}
	if c.DataOffset < c.LowRegionSize {
		return fmt.Errorf("data_offset must be >= low_region_size")
	}
	if c.TextBase%4 != 0 {
		return fmt.Errorf("text_base must be word aligned")
	}
	if c.TextBase >= c.LowRegionSize {
		return fmt.Errorf("text_base must be inside the low region")
	}
	if c.DumpWords < 0 {
		return fmt.Errorf("dump_words must be >= 0")
	}
	return nil
}

// DataSize returns the number of physical bytes behind the data segment.
func (c *Machine) DataSize() uint32 {
	return c.MemorySize - c.LowRegionSize
}

// Clone returns a copy of the Machine.
func (c *Machine) Clone() *Machine {
	clone := *c
	return &clone
}
