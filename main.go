// SPDX-License-Identifier: MPL-2.0

// Command pybake bakes reproducible, offline-capable Python runtime images
// from a declarative bakefile.
package main

import (
	cmd "pybake-cli/cmd/pybake"
)

func main() {
	cmd.Execute()
}
