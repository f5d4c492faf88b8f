// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"io"
	"os"
	"path/filepath"
)

// DefaultRepository is the image repository baked images are tagged under.
const DefaultRepository = "pybake"

type (
	// Config holds configuration for baking images.
	Config struct {
		// Repository is the image repository for baked image tags.
		// Default: "pybake"
		Repository string

		// ForceRebuild bypasses cached images and forces a rebuild
		ForceRebuild bool

		// NoCache additionally disables the engine's layer cache, so every
		// stage reruns from scratch. Implies a full rebuild.
		NoCache bool

		// CacheDir is where bake lock files and build metadata are stored.
		// Default: ~/.cache/pybake
		CacheDir string

		// TagSuffix is an optional suffix appended to baked image tags.
		// This enables test isolation by making each test's images unique.
		// Can be set via PYBAKE_TAG_SUFFIX environment variable.
		TagSuffix string

		// BuildOutput is where engine build progress is written.
		// Default: os.Stderr
		BuildOutput io.Writer
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	cacheDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".cache", "pybake")
	}

	// Read tag suffix from environment (for test isolation)
	tagSuffix := os.Getenv("PYBAKE_TAG_SUFFIX")

	return &Config{
		Repository:  DefaultRepository,
		CacheDir:    cacheDir,
		TagSuffix:   tagSuffix,
		BuildOutput: os.Stderr,
	}
}

// WithForceRebuild returns an Option that sets ForceRebuild on the config.
func WithForceRebuild(force bool) Option {
	return func(c *Config) {
		c.ForceRebuild = force
	}
}

// WithNoCache returns an Option that sets NoCache on the config.
func WithNoCache(noCache bool) Option {
	return func(c *Config) {
		c.NoCache = noCache
	}
}

// WithRepository returns an Option that sets Repository on the config.
func WithRepository(repository string) Option {
	return func(c *Config) {
		c.Repository = repository
	}
}

// WithCacheDir returns an Option that sets CacheDir on the config.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithTagSuffix returns an Option that sets TagSuffix on the config.
// This is primarily used for test isolation to ensure parallel tests
// don't compete for the same baked image tags.
func WithTagSuffix(suffix string) Option {
	return func(c *Config) {
		c.TagSuffix = suffix
	}
}

// WithBuildOutput returns an Option that sets BuildOutput on the config.
func WithBuildOutput(w io.Writer) Option {
	return func(c *Config) {
		c.BuildOutput = w
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
