// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"pybake-cli/internal/bake"
)

var (
	planFile   string
	planEngine string
	planPlain  bool

	// planCmd shows what a bake would do without building
	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Show the build stages a bake would run, without building",
		Long: `Render the build recipe and resolved image tag without invoking the
container engine. Useful for reviewing stage ordering and checking whether
the current inputs are already baked.`,
		RunE: runPlan,
	}
)

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "bakefile path or directory (default: current directory)")
	planCmd.Flags().StringVar(&planEngine, "engine", "", "container engine (docker or podman, default: auto-detect)")
	planCmd.Flags().BoolVar(&planPlain, "plain", false, "plain output without markdown rendering")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	recipe, recipeDir, _, err := loadRecipe(planFile)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(planEngine)
	if err != nil {
		return err
	}

	baker := bake.NewImageBaker(engine, newBakeConfig())
	plan, err := baker.Plan(cmd.Context(), recipe, recipeDir)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", SubtitleStyle.Render("Image:"), CmdStyle.Render(string(plan.ImageTag)))
	if plan.Cached {
		fmt.Printf("%s already baked, a bake would be a no-op\n", SuccessStyle.Render("✓"))
	} else {
		fmt.Printf("%s not baked yet, a bake would build all stages\n", WarningStyle.Render("→"))
	}
	fmt.Println()

	if planPlain {
		fmt.Println(plan.Dockerfile)
		return nil
	}

	rendered, err := glamour.Render("```dockerfile\n"+plan.Dockerfile+"\n```", "auto")
	if err != nil {
		// Fall back to plain output when the terminal renderer fails.
		fmt.Println(plan.Dockerfile)
		return nil //nolint:nilerr // plain fallback is the degraded success path
	}
	fmt.Print(rendered)

	return nil
}
