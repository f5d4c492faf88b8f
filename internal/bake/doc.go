// SPDX-License-Identifier: MPL-2.0

// Package bake turns a parsed bakefile recipe into a container image.
//
// The build is a linear sequence of stages rendered into a Dockerfile:
// pinned base image, working directory, native build tools, dependency
// manifest, pip install, model seed script, application files, and the
// managed environment variables. Stage ordering is load-bearing: the
// dependency manifest is copied before any other application file so the
// installed-dependency layer is invalidated only by manifest changes.
//
// Built images are cached by content hash. Rebaking with unchanged inputs
// resolves to the existing image without invoking the engine:
//
//	baker := bake.NewImageBaker(engine, cfg)
//	result, err := baker.Bake(ctx, recipe, recipeDir)
//	// result.ImageTag names the baked image
//
// Any stage failure aborts the whole bake with the engine's diagnostics.
// There are no retries and no partial images.
package bake
