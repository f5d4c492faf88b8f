// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pybake-cli/internal/issue"
)

func TestLoadRecipeMissingBakefileCarriesCatalogId(t *testing.T) {
	_, _, _, err := loadRecipe(t.TempDir())
	if err == nil {
		t.Fatal("expected error for a directory without a bakefile")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.BakefileNotFoundId {
		t.Errorf("expected bakefile-not-found catalog id, got %v", err)
	}
}

func TestLoadRecipeParseErrorCarriesCatalogId(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bakefile.cue")
	if err := os.WriteFile(path, []byte(`base_image: "python:latest"`+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write bakefile: %v", err)
	}

	_, _, _, err := loadRecipe(path)
	if err == nil {
		t.Fatal("expected error for an unpinned base image")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.BakefileParseErrorId {
		t.Errorf("expected bakefile-parse-error catalog id, got %v", err)
	}
}

func TestLoadRecipeReturnsRecipeFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	recipe := `base_image: "python:3.12-slim"
manifest: "requirements.txt"
`
	if err := os.WriteFile(path, []byte(recipe), 0o644); err != nil {
		t.Fatalf("failed to write bakefile: %v", err)
	}

	_, recipeDir, recipeFile, err := loadRecipe(path)
	if err != nil {
		t.Fatalf("loadRecipe() error = %v", err)
	}
	if recipeFile != "custom.cue" {
		t.Errorf("recipe file = %q, want %q", recipeFile, "custom.cue")
	}
	if filepath.Join(recipeDir, recipeFile) != path {
		t.Errorf("recipe dir %q and file %q do not resolve to %q", recipeDir, recipeFile, path)
	}
}

func TestIssueGuidance(t *testing.T) {
	linked := issue.NewErrorContext().
		WithOperation("locate bakefile").
		WithIssue(issue.BakefileNotFoundId).
		Wrap(errors.New("not found")).
		BuildError()
	if guidance := issueGuidance(linked); guidance == "" {
		t.Error("expected rendered guidance for an error with a catalog id")
	}

	wrapped := &ExitError{Code: 1, Err: linked}
	if guidance := issueGuidance(wrapped); guidance == "" {
		t.Error("expected guidance to surface through wrapping errors")
	}

	if guidance := issueGuidance(errors.New("plain")); guidance != "" {
		t.Errorf("expected no guidance for a plain error, got %q", guidance)
	}
}

func TestCatalogInitGuidanceMatchesInitFlags(t *testing.T) {
	entry := issue.Lookup(issue.BakefileParseErrorId)
	if entry == nil {
		t.Fatal("expected a catalog entry for bakefile parse errors")
	}
	if !strings.Contains(string(entry.MarkdownMsg()), "pybake init --force") {
		t.Error("expected the parse-error entry to suggest 'pybake init --force'")
	}
	if initCmd.Flags().Lookup("force") == nil {
		t.Error("the suggested --force flag is not defined on 'pybake init'")
	}
}
