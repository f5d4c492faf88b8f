// SPDX-License-Identifier: MPL-2.0

package verify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"pybake-cli/internal/container"
	"pybake-cli/pkg/bakefile"
)

type (
	// Check is one offline assertion against a baked image. Command is
	// executed inside the image with networking disabled; exit zero passes.
	Check struct {
		// Name identifies the check in the report.
		Name string
		// Description says what passing proves.
		Description string
		// Command is the command run inside the container.
		Command []string
	}

	// CheckResult is the outcome of one check.
	CheckResult struct {
		// Check is the check that ran.
		Check Check
		// Passed reports whether the command exited zero.
		Passed bool
		// Output is the combined stdout and stderr of the command.
		Output string
	}

	// Report aggregates the results of verifying one image.
	Report struct {
		// Image is the verified image.
		Image container.ImageTag
		// Results holds one entry per check, in execution order.
		Results []CheckResult
	}

	// Verifier runs offline acceptance checks using a container engine.
	Verifier struct {
		engine container.Engine
		logger *log.Logger
	}
)

// Passed reports whether every check in the report passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the results of checks that did not pass.
func (r *Report) Failed() []CheckResult {
	var failed []CheckResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// NewVerifier creates a Verifier backed by the given engine.
func NewVerifier(engine container.Engine) *Verifier {
	return &Verifier{
		engine: engine,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "verify",
		}),
	}
}

// ChecksFor derives the offline checks for a recipe: model cache populated,
// module search path configured, unbuffered output, and one import probe per
// declared module.
func ChecksFor(recipe *bakefile.Bakefile) []Check {
	checks := []Check{
		{
			Name:        "module-search-path",
			Description: "PYTHONPATH equals the working directory and is on sys.path",
			Command: []string{"python", "-c", fmt.Sprintf(
				"import os, sys; assert os.environ.get('PYTHONPATH') == %q, os.environ.get('PYTHONPATH'); assert %q in sys.path",
				recipe.Workdir, recipe.Workdir)},
		},
		{
			Name:        "unbuffered-output",
			Description: "PYTHONUNBUFFERED is set to a truthy value",
			Command: []string{"python", "-c",
				"import os, sys; v = os.environ.get('PYTHONUNBUFFERED', ''); sys.exit(0 if v not in ('', '0') else 1)"},
		},
	}

	if recipe.SeedScript != "" && recipe.ModelCacheDir != "" {
		checks = append(checks, Check{
			Name:        "model-cache-populated",
			Description: "the embedding model cache directory is non-empty",
			Command: []string{"python", "-c", fmt.Sprintf(
				"import os, sys; sys.exit(0 if os.path.isdir(%q) and os.listdir(%q) else 1)",
				recipe.ModelCacheDir, recipe.ModelCacheDir)},
		})
	}

	for _, mod := range recipe.ProbeModules {
		checks = append(checks, Check{
			Name:        "import-" + mod,
			Description: fmt.Sprintf("module %s imports with networking disabled", mod),
			Command:     []string{"python", "-c", "import " + mod},
		})
	}

	return checks
}

// Verify runs every check for the recipe against the image. All checks run
// even when earlier ones fail, so the report shows the full picture. The
// returned error covers infrastructure failures only; check failures are
// reported through the Report.
func (v *Verifier) Verify(ctx context.Context, recipe *bakefile.Bakefile, image container.ImageTag) (*Report, error) {
	report := &Report{Image: image}

	for _, check := range ChecksFor(recipe) {
		v.logger.Debug("running check", "check", check.Name, "image", image)

		var output bytes.Buffer
		result, err := v.engine.Run(ctx, container.RunOptions{
			Image:   image,
			Command: check.Command,
			Network: container.NetworkNone,
			Remove:  true,
			Stdout:  &output,
			Stderr:  &output,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to run check %s: %w", check.Name, err)
		}
		if result.Error != nil {
			return nil, fmt.Errorf("failed to run check %s: %w", check.Name, result.Error)
		}

		passed := result.ExitCode.IsSuccess()
		if passed {
			v.logger.Info("check passed", "check", check.Name)
		} else {
			v.logger.Warn("check failed", "check", check.Name, "exit_code", result.ExitCode)
		}

		report.Results = append(report.Results, CheckResult{
			Check:  check,
			Passed: passed,
			Output: strings.TrimSpace(output.String()),
		})
	}

	return report, nil
}
