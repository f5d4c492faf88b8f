// SPDX-License-Identifier: MPL-2.0

package bakefile

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrInvalidWorkdir is the sentinel error wrapped by InvalidWorkdirError.
	ErrInvalidWorkdir = errors.New("invalid workdir")
	// ErrInvalidContextPath is the sentinel error wrapped by InvalidContextPathError.
	ErrInvalidContextPath = errors.New("invalid context path")
	// ErrInvalidCopySpec is the sentinel error wrapped by InvalidCopySpecError.
	ErrInvalidCopySpec = errors.New("invalid copy spec")
	// ErrInvalidBakefile is the sentinel error wrapped by InvalidBakefileError.
	ErrInvalidBakefile = errors.New("invalid bakefile")
)

type (
	// Bakefile is the decoded, validated form of a bakefile.cue recipe.
	// Field defaults are applied by the CUE schema during parsing; the zero
	// value is not a usable recipe.
	Bakefile struct {
		// BaseImage is the pinned base interpreter image (e.g. "python:3.10-slim").
		BaseImage ImageRef `json:"base_image"`

		// Workdir is the absolute working directory inside the image. All
		// relative copy destinations and the module search path resolve here.
		Workdir string `json:"workdir"`

		// SystemPackages are apt packages installed for the native build
		// toolchain (compilers, headers for binary extensions).
		SystemPackages []string `json:"system_packages"`

		// Manifest is the dependency manifest path, relative to the bakefile's
		// directory. Copied into the image before any other application file so
		// unrelated edits never invalidate the dependency layer.
		Manifest string `json:"manifest"`

		// SeedScript is the model pre-fetch script path, relative to the
		// bakefile's directory. Empty disables the seed stage. When set, the
		// script is copied into the image and executed once during the build;
		// its contract is "run with no arguments, populate the model cache,
		// exit zero".
		SeedScript string `json:"seed_script,omitempty"`

		// ModelCacheDir is the directory inside the image that the seed script
		// populates. Offline verification asserts it is non-empty after a bake.
		ModelCacheDir string `json:"model_cache_dir"`

		// AppFiles are additional files or directories copied into the image
		// after the dependency and seed layers.
		AppFiles []CopySpec `json:"app_files"`

		// Env are extra environment variables set in the image. PYTHONPATH and
		// PYTHONUNBUFFERED are always emitted and cannot be overridden here.
		Env map[string]string `json:"env,omitempty"`

		// ExtraCommands are shell commands appended as RUN instructions after
		// the application files are in place.
		ExtraCommands []ShellCommand `json:"extra_commands,omitempty"`

		// ProbeModules are Python module names that offline verification
		// imports inside the baked image with networking disabled.
		ProbeModules []string `json:"probe_modules"`
	}

	// CopySpec describes one file or directory copied from the build context
	// into the image.
	CopySpec struct {
		// Src is the source path relative to the bakefile's directory.
		Src string `json:"src"`
		// Dest is the destination path, resolved against Workdir when relative.
		Dest string `json:"dest"`
	}

	// InvalidWorkdirError is returned when a workdir is not an absolute path.
	InvalidWorkdirError struct {
		Value string
	}

	// InvalidContextPathError is returned when a path that must stay inside
	// the build context is empty, absolute, or escapes via "..".
	InvalidContextPathError struct {
		Field string
		Value string
	}

	// InvalidCopySpecError is returned when a CopySpec has invalid fields.
	InvalidCopySpecError struct {
		Value     CopySpec
		FieldErrs []error
	}

	// InvalidBakefileError aggregates all validation failures of a Bakefile.
	InvalidBakefileError struct {
		FieldErrs []error
	}
)

// Error implements the error interface.
func (e *InvalidWorkdirError) Error() string {
	return fmt.Sprintf("invalid workdir %q: must be an absolute path", e.Value)
}

// Unwrap returns ErrInvalidWorkdir for errors.Is() compatibility.
func (e *InvalidWorkdirError) Unwrap() error { return ErrInvalidWorkdir }

// Error implements the error interface.
func (e *InvalidContextPathError) Error() string {
	return fmt.Sprintf("invalid %s path %q: must be a relative path inside the build context", e.Field, e.Value)
}

// Unwrap returns ErrInvalidContextPath for errors.Is() compatibility.
func (e *InvalidContextPathError) Unwrap() error { return ErrInvalidContextPath }

// Error implements the error interface.
func (e *InvalidCopySpecError) Error() string {
	return fmt.Sprintf("invalid copy spec %s -> %s: %d field error(s)", e.Value.Src, e.Value.Dest, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidCopySpec for errors.Is() compatibility.
func (e *InvalidCopySpecError) Unwrap() error { return ErrInvalidCopySpec }

// Error implements the error interface.
func (e *InvalidBakefileError) Error() string {
	return fmt.Sprintf("invalid bakefile: %d field error(s)", len(e.FieldErrs))
}

// Unwrap returns ErrInvalidBakefile for errors.Is() compatibility.
func (e *InvalidBakefileError) Unwrap() error { return ErrInvalidBakefile }

// validateContextPath checks that p is a relative path that stays inside the
// build context directory.
func validateContextPath(field, p string) error {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return &InvalidContextPathError{Field: field, Value: p}
	}
	clean := path.Clean(trimmed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return &InvalidContextPathError{Field: field, Value: p}
	}
	return nil
}

// Validate returns an error if the CopySpec is invalid. The copy source must
// stay inside the build context; "." copies the whole context directory.
func (s CopySpec) Validate() error {
	var errs []error
	if err := validateContextPath("copy source", s.Src); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(s.Dest) == "" {
		errs = append(errs, &InvalidContextPathError{Field: "copy destination", Value: s.Dest})
	}
	if len(errs) > 0 {
		return &InvalidCopySpecError{Value: s, FieldErrs: errs}
	}
	return nil
}

// Validate checks all constraints the CUE schema cannot express: image tag
// pinning, path containment, and shell syntax of extra commands. It returns
// an InvalidBakefileError aggregating every violation, so a user fixes the
// whole recipe in one pass instead of replaying the build per error.
func (b *Bakefile) Validate() error {
	var errs []error

	if err := b.BaseImage.Validate(); err != nil {
		errs = append(errs, err)
	}

	if !strings.HasPrefix(b.Workdir, "/") {
		errs = append(errs, &InvalidWorkdirError{Value: b.Workdir})
	}

	if err := validateContextPath("manifest", b.Manifest); err != nil {
		errs = append(errs, err)
	}

	if b.SeedScript != "" {
		if err := validateContextPath("seed script", b.SeedScript); err != nil {
			errs = append(errs, err)
		}
	}

	for _, spec := range b.AppFiles {
		if err := spec.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cmd := range b.ExtraCommands {
		if err := cmd.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	for key := range b.Env {
		if key == "PYTHONPATH" || key == "PYTHONUNBUFFERED" {
			errs = append(errs, fmt.Errorf("env %s is managed by the recipe and cannot be overridden", key))
		}
	}

	if len(errs) > 0 {
		return &InvalidBakefileError{FieldErrs: errs}
	}
	return nil
}

// RuntimeEnv returns the environment variables the baked image exposes to
// every process started from it: the user's extra env plus the managed
// module search path and unbuffered-output flag.
func (b *Bakefile) RuntimeEnv() map[string]string {
	env := make(map[string]string, len(b.Env)+2)
	for k, v := range b.Env {
		env[k] = v
	}
	env["PYTHONPATH"] = b.Workdir
	env["PYTHONUNBUFFERED"] = "1"
	return env
}
