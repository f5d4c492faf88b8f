// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pybake-cli/internal/bake"
	"pybake-cli/internal/watch"
	"pybake-cli/pkg/bakefile"
)

var (
	bakeFile      string
	bakeForce     bool
	bakeNoCache   bool
	bakeEngine    string
	bakeTagSuffix string
	bakeWatch     bool

	// bakeCmd builds the image for a recipe
	bakeCmd = &cobra.Command{
		Use:   "bake",
		Short: "Build the runtime image for a bakefile recipe",
		Long: `Build the runtime image described by a bakefile.cue recipe.

The image tag is derived from the recipe's content hash; rebaking with
unchanged inputs reuses the existing image. A pybake.lock file is written
next to the bakefile recording the resolved inputs.

With --watch, pybake keeps running and re-bakes whenever the manifest,
seed script, or app files change.`,
		RunE: runBake,
	}
)

func init() {
	bakeCmd.Flags().StringVarP(&bakeFile, "file", "f", "", "bakefile path or directory (default: current directory)")
	bakeCmd.Flags().BoolVar(&bakeForce, "force", false, "rebuild even when a cached image exists")
	bakeCmd.Flags().BoolVar(&bakeNoCache, "no-cache", false, "also disable the engine's layer cache")
	bakeCmd.Flags().StringVar(&bakeEngine, "engine", "", "container engine (docker or podman, default: auto-detect)")
	bakeCmd.Flags().StringVar(&bakeTagSuffix, "tag-suffix", "", "suffix appended to the baked image tag")
	bakeCmd.Flags().BoolVarP(&bakeWatch, "watch", "w", false, "re-bake when recipe inputs change")
}

func runBake(cmd *cobra.Command, _ []string) error {
	recipe, recipeDir, recipeFile, err := loadRecipe(bakeFile)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(bakeEngine)
	if err != nil {
		return err
	}

	baker := bake.NewImageBaker(engine, newBakeConfig())

	ctx := cmd.Context()
	if err := bakeOnce(ctx, baker, recipe, recipeDir); err != nil {
		return err
	}

	if !bakeWatch {
		return nil
	}

	fmt.Println(SubtitleStyle.Render("Watching recipe inputs, press Ctrl-C to stop..."))

	watcher, err := watch.New(watch.Config{
		BaseDir:  recipeDir,
		Patterns: watch.PatternsFor(recipe, recipeFile),
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Printf("%s %v\n", SubtitleStyle.Render("Changed:"), changed)

			// Re-parse so recipe edits take effect on the next bake.
			freshRecipe, freshDir, _, loadErr := loadRecipe(bakeFile)
			if loadErr != nil {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(loadErr, verbose))
				return nil
			}
			if bakeErr := bakeOnce(ctx, baker, freshRecipe, freshDir); bakeErr != nil {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(bakeErr, verbose))
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	return watcher.Run(ctx)
}

// bakeOnce runs a single bake and prints the outcome.
func bakeOnce(ctx context.Context, baker bake.Baker, recipe *bakefile.Bakefile, recipeDir string) error {
	result, err := baker.Bake(ctx, recipe, recipeDir)
	if err != nil {
		return err
	}

	if result.CacheHit {
		fmt.Printf("%s Image %s is up to date\n", SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)))
	} else {
		fmt.Printf("%s Baked %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)))
		fmt.Printf("  Lock written to %s\n", result.LockPath)
	}
	return nil
}

// newBakeConfig assembles the bake configuration from loaded config and flags.
func newBakeConfig() *bake.Config {
	cfg := bake.DefaultConfig()

	if appConfig.Bake.Repository != "" {
		cfg.Apply(bake.WithRepository(appConfig.Bake.Repository))
	}
	if appConfig.Bake.CacheDir != "" {
		cfg.Apply(bake.WithCacheDir(string(appConfig.Bake.CacheDir)))
	}
	if appConfig.Bake.TagSuffix != "" {
		cfg.Apply(bake.WithTagSuffix(appConfig.Bake.TagSuffix))
	}

	cfg.Apply(
		bake.WithForceRebuild(bakeForce),
		bake.WithNoCache(bakeNoCache),
	)
	if bakeTagSuffix != "" {
		cfg.Apply(bake.WithTagSuffix(bakeTagSuffix))
	}

	return cfg
}
