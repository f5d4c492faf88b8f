// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"path/filepath"

	"pybake-cli/internal/issue"
)

// manifestNotFoundError creates an actionable error for a missing or
// unreadable dependency manifest. A bake cannot proceed without it, so the
// failure happens before any engine invocation.
func manifestNotFoundError(manifest, recipeDir string, cause error) error {
	return issue.NewErrorContext().
		WithOperation("read dependency manifest").
		WithResource(filepath.Join(recipeDir, manifest)).
		WithSuggestion("Check that the manifest path in the bakefile matches the file on disk").
		WithSuggestion("Paths in the bakefile are relative to the bakefile's directory").
		WithIssue(issue.ManifestNotFoundId).
		Wrap(cause).
		BuildError()
}

// seedScriptError creates an actionable error for a seed script the bake
// cannot read. Like the manifest, the failure happens before any engine
// invocation.
func seedScriptError(seedScript, recipeDir string, cause error) error {
	return issue.NewErrorContext().
		WithOperation("read model seed script").
		WithResource(filepath.Join(recipeDir, seedScript)).
		WithSuggestion("Check that the seed_script path in the bakefile matches the file on disk").
		WithIssue(issue.SeedScriptFailedId).
		Wrap(cause).
		BuildError()
}
