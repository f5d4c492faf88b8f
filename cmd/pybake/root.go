// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"pybake-cli/internal/config"
	"pybake-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// appConfig is the loaded tool configuration, populated by initRootConfig.
	appConfig = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "pybake",
		Short: "Bake reproducible, offline-capable Python runtime images",
		Long: TitleStyle.Render("pybake") + SubtitleStyle.Render(" - Bake reproducible, offline-capable Python runtime images") + `

pybake turns a declarative recipe (bakefile.cue) into a container image:
a pinned Python base, a native build toolchain, dependencies installed
from a requirements manifest, and embedding models pre-fetched into the
image so the running container never needs network access.

Image tags are content-addressed: rebaking with unchanged inputs reuses
the existing image instead of rebuilding.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'pybake init' to scaffold a bakefile.cue
  2. Adjust the recipe (base image, manifest, seed script)
  3. Run 'pybake bake' to build the image

` + SubtitleStyle.Render("Examples:") + `
  pybake bake               Bake the image for the current directory
  pybake bake --watch       Re-bake whenever recipe inputs change
  pybake plan               Show the build stages without building
  pybake verify             Run offline acceptance checks on the baked image
  pybake doctor             Check container engine availability`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pybake/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(bakeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(doctorCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		if guidance := issueGuidance(err); guidance != "" {
			fmt.Fprint(os.Stderr, guidance)
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Config errors must never hide the command output; warn and fall
		// back to defaults.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}

	appConfig = cfg

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// issueGuidance renders the catalog entry linked to an error, or returns ""
// when the error carries no catalog id or the entry cannot be rendered.
func issueGuidance(err error) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID == 0 {
		return ""
	}

	entry := issue.Lookup(ae.IssueID)
	if entry == nil {
		return ""
	}

	rendered, renderErr := entry.Render("auto")
	if renderErr != nil {
		return ""
	}
	return rendered
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
