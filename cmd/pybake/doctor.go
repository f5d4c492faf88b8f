// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pybake-cli/internal/config"
	"pybake-cli/internal/container"
)

// doctorCmd reports on the local environment
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the local environment",
	Long: `Check that a container engine is available and report where pybake
reads its configuration from. Run this when 'pybake bake' cannot find or talk
to an engine.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println(TitleStyle.Render("pybake doctor"))
	fmt.Println()

	fmt.Println(SubtitleStyle.Render("Container engines:"))
	engines := []container.Engine{
		container.NewDockerEngine(),
		container.NewPodmanEngine(),
	}
	available := 0
	for _, engine := range engines {
		if !engine.Available() {
			fmt.Printf("  %s %s: not installed or not responding\n", ErrorStyle.Render("✗"), engine.Name())
			continue
		}
		version, err := engine.Version(ctx)
		if err != nil {
			version = "unknown"
		}
		fmt.Printf("  %s %s: %s\n", SuccessStyle.Render("✓"), engine.Name(), version)
		available++
	}
	fmt.Println()

	fmt.Println(SubtitleStyle.Render("Configuration:"))
	if cfgFile != "" {
		fmt.Printf("  config file: %s (via --config)\n", cfgFile)
	} else {
		cfgDir, err := config.ConfigDir()
		if err != nil {
			fmt.Printf("  %s cannot resolve config directory: %v\n", WarningStyle.Render("!"), err)
		} else {
			fmt.Printf("  config dir:  %s\n", cfgDir)
		}
	}
	if appConfig.ContainerEngine != config.ContainerEngineAuto {
		fmt.Printf("  engine:      %s (pinned by config)\n", appConfig.ContainerEngine)
	} else {
		fmt.Println("  engine:      auto-detect")
	}
	fmt.Printf("  repository:  %s\n", cacheRepository())
	fmt.Println()

	if available == 0 {
		fmt.Printf("%s No working container engine found. Install Docker or Podman.\n", ErrorStyle.Render("✗"))
		return &ExitError{Code: 1}
	}

	fmt.Printf("%s Ready to bake\n", SuccessStyle.Render("✓"))
	return nil
}
