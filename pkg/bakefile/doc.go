// SPDX-License-Identifier: MPL-2.0

// Package bakefile defines the declarative recipe format for baked runtime
// images.
//
// A bakefile is a CUE document validated against an embedded schema. It
// describes everything needed to produce a reproducible, offline-capable
// Python runtime image: the pinned base interpreter image, the working
// directory, the native toolchain packages, the dependency manifest, the
// model seed script, and the environment the resulting image exposes.
//
// Parsing follows the embedded-schema flow in pkg/cueutil; Go-side
// validation covers the constraints CUE cannot express, such as shell
// syntax of extra commands and tag pinning of the base image.
package bakefile
