// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pybake-cli/internal/container"
)

// DefaultLockFileName is the bake lock file written next to the bakefile.
const DefaultLockFileName = "pybake.lock"

type (
	// Lock records the exact inputs a bake resolved to. It is written after
	// every successful bake so later verification and rebuild decisions are
	// grounded in recorded inputs instead of re-deriving them.
	Lock struct {
		// ImageTag is the baked image.
		ImageTag container.ImageTag `toml:"image_tag"`

		// CacheKey is the full content hash the tag is derived from.
		CacheKey string `toml:"cache_key"`

		// BaseImage is the pinned base image the bake started from.
		BaseImage string `toml:"base_image"`

		// Engine is the container engine that performed the build.
		Engine string `toml:"engine"`

		// BakedAt is when the bake completed.
		BakedAt time.Time `toml:"baked_at"`

		// Inputs are the per-input content digests (manifest, seed script,
		// app files) that fed the cache key.
		Inputs map[string]string `toml:"inputs"`
	}
)

// WriteLockFile writes the lock to path in TOML form.
func WriteLockFile(path string, lock *Lock) error {
	data, err := toml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("failed to encode bake lock: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bake lock %s: %w", path, err)
	}
	return nil
}

// ReadLockFile reads a lock from path.
func ReadLockFile(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bake lock %s: %w", path, err)
	}

	var lock Lock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse bake lock %s: %w", path, err)
	}
	return &lock, nil
}
