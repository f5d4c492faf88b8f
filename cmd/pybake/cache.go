// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pybake-cli/internal/bake"
)

var (
	cacheEngine string
	cacheForce  bool

	// cacheCmd groups the baked-image cache operations
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage baked images",
		Long: `List or remove the content-addressed images pybake has baked.

Baked images are tagged <repository>:<hash>, so every distinct recipe input
set keeps its own image until cleared.`,
	}

	cacheListCmd = &cobra.Command{
		Use:   "list",
		Short: "List baked images",
		RunE:  runCacheList,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove all baked images",
		RunE:  runCacheClear,
	}
)

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheEngine, "engine", "", "container engine (docker or podman, default: auto-detect)")
	cacheClearCmd.Flags().BoolVarP(&cacheForce, "force", "f", false, "force removal even when containers reference the image")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func cacheRepository() string {
	if appConfig.Bake.Repository != "" {
		return appConfig.Bake.Repository
	}
	return bake.DefaultRepository
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	engine, err := resolveEngine(cacheEngine)
	if err != nil {
		return err
	}

	images, err := engine.ListImages(cmd.Context(), cacheRepository())
	if err != nil {
		return fmt.Errorf("failed to list baked images: %w", err)
	}

	if len(images) == 0 {
		fmt.Println(SubtitleStyle.Render("No baked images found"))
		return nil
	}

	fmt.Println(SubtitleStyle.Render("Baked images:"))
	for _, img := range images {
		fmt.Printf("  %s\n", CmdStyle.Render(string(img)))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	engine, err := resolveEngine(cacheEngine)
	if err != nil {
		return err
	}

	images, err := engine.ListImages(cmd.Context(), cacheRepository())
	if err != nil {
		return fmt.Errorf("failed to list baked images: %w", err)
	}

	if len(images) == 0 {
		fmt.Println(SubtitleStyle.Render("Nothing to clear"))
		return nil
	}

	removed := 0
	for _, img := range images {
		if err := engine.RemoveImage(cmd.Context(), img, cacheForce); err != nil {
			fmt.Printf("%s Failed to remove %s: %v\n", WarningStyle.Render("!"), img, err)
			continue
		}
		fmt.Printf("%s Removed %s\n", SuccessStyle.Render("✓"), img)
		removed++
	}

	fmt.Println()
	fmt.Printf("%s Removed %d of %d baked images\n", SuccessStyle.Render("✓"), removed, len(images))
	return nil
}
