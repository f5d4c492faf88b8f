// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"context"

	"pybake-cli/internal/container"
	"pybake-cli/pkg/bakefile"
)

type (
	// Baker turns bakefile recipes into container images.
	// Implementations cache baked images based on content hashes so an
	// unchanged recipe resolves to the existing image without a rebuild.
	Baker interface {
		// Bake builds (or resolves from cache) the image for a recipe.
		// recipeDir is the directory containing the bakefile; the manifest,
		// seed script, and app file paths in the recipe resolve against it.
		Bake(ctx context.Context, recipe *bakefile.Bakefile, recipeDir string) (*Result, error)

		// Plan computes what a Bake would do without building anything.
		Plan(ctx context.Context, recipe *bakefile.Bakefile, recipeDir string) (*BuildPlan, error)
	}

	// Result contains the output of a bake operation.
	Result struct {
		// ImageTag is the tag of the baked image (e.g., "pybake:3f9c2a1b04de")
		ImageTag container.ImageTag

		// CacheKey is the full content hash the tag is derived from.
		CacheKey string

		// CacheHit reports whether an existing image satisfied the bake
		// without invoking the engine.
		CacheHit bool

		// LockPath is the path of the bake lock file recording the inputs.
		LockPath string

		// EnvVars are the environment variables every process started from
		// the image inherits.
		EnvVars map[string]string
	}

	// BuildPlan describes the work a Bake would perform.
	BuildPlan struct {
		// Dockerfile is the rendered build recipe.
		Dockerfile string

		// ImageTag is the tag the bake would produce.
		ImageTag container.ImageTag

		// CacheKey is the full content hash the tag is derived from.
		CacheKey string

		// Cached reports whether the image already exists locally.
		Cached bool
	}
)
