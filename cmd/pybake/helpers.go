// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"pybake-cli/internal/container"
	"pybake-cli/internal/issue"
	"pybake-cli/pkg/bakefile"
)

// loadRecipe locates and parses the bakefile. location may be a directory,
// an explicit file path, or empty (current directory). It returns the parsed
// recipe, the directory all recipe paths resolve against, and the bakefile's
// name inside that directory.
func loadRecipe(location string) (*bakefile.Bakefile, string, string, error) {
	if location == "" {
		location = "."
	}

	path, err := bakefile.Find(location)
	if err != nil {
		return nil, "", "", issue.NewErrorContext().
			WithOperation("locate bakefile").
			WithResource(location).
			WithSuggestion("Run 'pybake init' to scaffold a bakefile.cue").
			WithSuggestion("Use --file to point at a bakefile in another directory").
			WithIssue(issue.BakefileNotFoundId).
			Wrap(err).
			BuildError()
	}

	recipe, err := bakefile.Parse(path)
	if err != nil {
		return nil, "", "", issue.NewErrorContext().
			WithOperation("parse bakefile").
			WithResource(string(path)).
			WithSuggestion("Check the file contains valid CUE syntax").
			WithSuggestion("The base image must be pinned (no 'latest' tag)").
			WithIssue(issue.BakefileParseErrorId).
			Wrap(err).
			BuildError()
	}

	recipeDir, err := filepath.Abs(filepath.Dir(string(path)))
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to resolve recipe directory: %w", err)
	}

	return recipe, recipeDir, filepath.Base(string(path)), nil
}

// resolveEngine picks the container engine: the --engine flag wins, then the
// configured preference, then auto-detection.
func resolveEngine(engineFlag string) (container.Engine, error) {
	preference := engineFlag
	if preference == "" {
		preference = string(appConfig.ContainerEngine)
	}

	var (
		engine container.Engine
		err    error
	)
	if preference == "" {
		engine, err = container.AutoDetectEngine()
	} else {
		engine, err = container.NewEngine(container.EngineType(preference))
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("detect container engine").
			WithSuggestion("Install Docker or Podman and ensure it is on PATH").
			WithSuggestion("Run 'pybake doctor' to see engine diagnostics").
			WithIssue(issue.ContainerEngineNotFoundId).
			Wrap(err).
			BuildError()
	}

	return engine, nil
}
