// Package config loads tree definitions from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultRootName        = "initial image"
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultRefreshInterval = 100 * time.Millisecond
)

var ErrInvalid = errors.New("invalid config")

// Config describes a processing tree: the source image, the root node name
// and every derived node in attach order. Grayscale loads the source as a
// single channel, for trees that start at hue_band or otsu.
type Config struct {
	Source          string        `toml:"source"`
	Grayscale       bool          `toml:"grayscale"`
	Root            string        `toml:"root"`
	PollInterval    time.Duration `toml:"poll_interval"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
	Nodes           []NodeConfig  `toml:"node"`
}

// NodeConfig is one derived node. Params override the kernel's initial
// values; names must match the kernel's parameters.
type NodeConfig struct {
	Name        string         `toml:"name"`
	Parent      string         `toml:"parent"`
	Kernel      string         `toml:"kernel"`
	LogDuration bool           `toml:"log_duration"`
	Params      map[string]int `toml:"params"`
}

// Load reads, defaults and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text. Unknown keys are rejected so typos surface early.
func Parse(text string) (Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRootName
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
}

// Validate checks names, parent order and intervals. Kernel names are
// resolved later, when the tree is built.
func (c Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalid)
	}
	if c.PollInterval < 0 || c.RefreshInterval < 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalid)
	}

	defined := map[string]bool{c.Root: true}
	for i, n := range c.Nodes {
		if n.Name == "" {
			return fmt.Errorf("%w: node %d has no name", ErrInvalid, i)
		}
		if defined[n.Name] {
			return fmt.Errorf("%w: duplicate node name %q", ErrInvalid, n.Name)
		}
		if n.Kernel == "" {
			return fmt.Errorf("%w: node %q has no kernel", ErrInvalid, n.Name)
		}
		parent := n.Parent
		if parent == "" {
			parent = c.Root
		}
		if !defined[parent] {
			return fmt.Errorf("%w: node %q refers to parent %q before it is defined", ErrInvalid, n.Name, parent)
		}
		defined[n.Name] = true
	}
	return nil
}

// ParentOf returns the node's parent, the root when none is given.
func (c Config) ParentOf(n NodeConfig) string {
	if n.Parent == "" {
		return c.Root
	}
	return n.Parent
}

// Default mirrors the strawberry sample: hue, hue band, then hole filling
// with and without noise removal.
func Default(source string) Config {
	return Config{
		Source:          source,
		Root:            DefaultRootName,
		PollInterval:    DefaultPollInterval,
		RefreshInterval: DefaultRefreshInterval,
		Nodes: []NodeConfig{
			{Name: "hue", Parent: DefaultRootName, Kernel: "hue"},
			{Name: "hue band selection", Parent: "hue", Kernel: "hue_band"},
			{Name: "hole filled", Parent: "hue band selection", Kernel: "hole_remover", LogDuration: true},
			{Name: "noise removed", Parent: "hue band selection", Kernel: "noise_remover", LogDuration: true},
			{Name: "hole filled after noise removed", Parent: "noise removed", Kernel: "hole_remover", LogDuration: true},
		},
	}
}
