// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"fmt"
	"sort"
	"strings"

	"pybake-cli/pkg/bakefile"
)

// generateDockerfile renders the build stages for a recipe.
//
// Stage order is fixed and load-bearing. The apt cache removal shares a RUN
// with the install so the cleaned metadata never lands in a layer, and the
// manifest is copied before any other application file so unrelated edits
// cannot invalidate the installed-dependency layer.
func (b *ImageBaker) generateDockerfile(recipe *bakefile.Bakefile) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", recipe.BaseImage)

	fmt.Fprintf(&sb, "WORKDIR %s\n\n", recipe.Workdir)

	if len(recipe.SystemPackages) > 0 {
		sb.WriteString("# Native build toolchain for dependencies with binary extensions\n")
		sb.WriteString("RUN apt-get update \\\n")
		fmt.Fprintf(&sb, "    && apt-get install -y --no-install-recommends %s \\\n",
			strings.Join(recipe.SystemPackages, " "))
		sb.WriteString("    && rm -rf /var/lib/apt/lists/*\n\n")
	}

	sb.WriteString("# Manifest first: dependency layer invalidated only by manifest changes\n")
	fmt.Fprintf(&sb, "COPY %s %s\n", recipe.Manifest, recipe.Manifest)
	fmt.Fprintf(&sb, "RUN pip install --no-cache-dir -r %s\n\n", recipe.Manifest)

	if recipe.SeedScript != "" {
		sb.WriteString("# Pre-fetch embedding models so the image runs without network access\n")
		fmt.Fprintf(&sb, "COPY %s %s\n", recipe.SeedScript, recipe.SeedScript)
		fmt.Fprintf(&sb, "RUN python %s\n\n", recipe.SeedScript)
	}

	for _, spec := range recipe.AppFiles {
		fmt.Fprintf(&sb, "COPY %s %s\n", spec.Src, spec.Dest)
	}
	if len(recipe.AppFiles) > 0 {
		sb.WriteString("\n")
	}

	for _, cmd := range recipe.ExtraCommands {
		fmt.Fprintf(&sb, "RUN %s\n", cmd)
	}
	if len(recipe.ExtraCommands) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("# Configure environment\n")
	keys := make([]string, 0, len(recipe.Env))
	for k := range recipe.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "ENV %s=\"%s\"\n", k, recipe.Env[k])
	}
	fmt.Fprintf(&sb, "ENV PYTHONPATH=\"%s\"\n", recipe.Workdir)
	sb.WriteString("ENV PYTHONUNBUFFERED=\"1\"\n")

	return sb.String()
}
