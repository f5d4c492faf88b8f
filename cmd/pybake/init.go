// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pybake-cli/pkg/bakefile"
)

var (
	initForce    bool
	initTemplate string

	// initCmd scaffolds a new bakefile
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a new bakefile in the current directory",
		Long: `Create a new bakefile in the current directory with a starter recipe.

The default template also writes a sample requirements.txt and a model seed
script so 'pybake bake' works out of the box.`,
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "template to use (default, minimal)")
}

const initBakefileMinimal = `base_image: "python:3.12-slim"
workdir:    "/app"
manifest:   "requirements.txt"

app_files: [
	{src: "main.py", dest: "main.py"},
]
`

const initBakefileDefault = `base_image: "python:3.12-slim"
workdir:    "/app"

// Native build toolchain for wheels that compile C extensions.
system_packages: ["build-essential"]

manifest: "requirements.txt"

// Runs once during the build to pull embedding models into the image.
seed_script:     "seed_models.py"
model_cache_dir: "/root/.cache/chroma"

app_files: [
	{src: "main.py", dest: "main.py"},
]

// Imported offline by 'pybake verify' to prove the image is self-contained.
probe_modules: ["chromadb"]
`

const initRequirements = `chromadb==0.4.24
`

const initSeedScript = `"""Pre-fetch embedding models into the image at build time.

Runs once during 'pybake bake' so the baked image never downloads models at
startup.
"""

from chromadb.utils import embedding_functions

embedding_functions.DefaultEmbeddingFunction()(["warm up the default model"])
print("model cache seeded")
`

const initMain = `print("hello from pybake")
`

func runInit(cmd *cobra.Command, args []string) error {
	filename := bakefile.DefaultFileName
	if len(args) > 0 {
		filename = args[0]
	}

	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	recipe := initBakefileDefault
	extras := []struct{ name, content string }{
		{"requirements.txt", initRequirements},
		{"seed_models.py", initSeedScript},
		{"main.py", initMain},
	}
	if initTemplate == "minimal" {
		recipe = initBakefileMinimal
		extras = []struct{ name, content string }{
			{"requirements.txt", initRequirements},
			{"main.py", initMain},
		}
	}

	if err := os.WriteFile(filename, []byte(recipe), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)

	dir := filepath.Dir(filename)
	for _, extra := range extras {
		path := filepath.Join(dir, extra.name)
		// Never clobber existing project files, even with --force.
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(extra.content), 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), path)
	}

	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the bakefile to describe your runtime")
	fmt.Println("  2. Run 'pybake bake' to build the image")
	fmt.Println("  3. Run 'pybake verify' to prove it works offline")

	return nil
}
