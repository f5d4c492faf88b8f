// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pybake-cli/internal/bake"
	"pybake-cli/internal/container"
	"pybake-cli/internal/issue"
	"pybake-cli/internal/verify"
)

var (
	verifyFile   string
	verifyEngine string
	verifyImage  string

	// verifyCmd runs offline acceptance checks on the baked image
	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Run offline acceptance checks against the baked image",
		Long: `Run the baked image with networking disabled and assert it is
self-contained: the embedding model cache is populated, PYTHONPATH points at
the working directory, output is unbuffered, and every declared probe module
imports without reaching the network.

The image is resolved from the pybake.lock file written by 'pybake bake',
unless --image names one explicitly. A failing check sets a non-zero exit
code.`,
		RunE: runVerify,
	}
)

func init() {
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "bakefile path or directory (default: current directory)")
	verifyCmd.Flags().StringVar(&verifyEngine, "engine", "", "container engine (docker or podman, default: auto-detect)")
	verifyCmd.Flags().StringVar(&verifyImage, "image", "", "image tag to verify (default: from pybake.lock)")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	recipe, recipeDir, _, err := loadRecipe(verifyFile)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(verifyEngine)
	if err != nil {
		return err
	}

	image := container.ImageTag(verifyImage)
	if image == "" {
		lockPath := filepath.Join(recipeDir, bake.DefaultLockFileName)
		lock, lockErr := bake.ReadLockFile(lockPath)
		if lockErr != nil {
			return issue.NewErrorContext().
				WithOperation("resolve baked image").
				WithResource(lockPath).
				WithSuggestion("Run 'pybake bake' first to build the image and write the lock").
				WithSuggestion("Or name an image explicitly with --image").
				Wrap(lockErr).
				BuildError()
		}
		image = lock.ImageTag
	}

	exists, err := engine.ImageExists(cmd.Context(), image)
	if err != nil {
		return fmt.Errorf("failed to check image %s: %w", image, err)
	}
	if !exists {
		return issue.NewErrorContext().
			WithOperation("verify image").
			WithResource(string(image)).
			WithSuggestion("Run 'pybake bake' to (re)build the image").
			Wrap(fmt.Errorf("image not found locally")).
			BuildError()
	}

	fmt.Printf("%s %s\n\n", SubtitleStyle.Render("Verifying (network disabled):"), CmdStyle.Render(string(image)))

	verifier := verify.NewVerifier(engine)
	report, err := verifier.Verify(cmd.Context(), recipe, image)
	if err != nil {
		return err
	}

	for _, res := range report.Results {
		if res.Passed {
			fmt.Printf("  %s %s\n", SuccessStyle.Render("✓"), res.Check.Name)
			continue
		}
		fmt.Printf("  %s %s (%s)\n", ErrorStyle.Render("✗"), res.Check.Name, res.Check.Description)
		if res.Output != "" {
			fmt.Printf("    %s\n", SubtitleStyle.Render(res.Output))
		}
	}
	fmt.Println()

	if !report.Passed() {
		fmt.Printf("%s %d of %d checks failed\n", ErrorStyle.Render("✗"), len(report.Failed()), len(report.Results))
		return &ExitError{Code: 1, Err: issue.NewErrorContext().
			WithOperation("verify image offline").
			WithResource(string(image)).
			WithIssue(issue.OfflineVerifyFailedId).
			Wrap(fmt.Errorf("%d of %d checks failed", len(report.Failed()), len(report.Results))).
			BuildError()}
	}

	fmt.Printf("%s Image is offline-capable (%d checks)\n", SuccessStyle.Render("✓"), len(report.Results))
	return nil
}
