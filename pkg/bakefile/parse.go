// SPDX-License-Identifier: MPL-2.0

package bakefile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"pybake-cli/pkg/cueutil"
	"pybake-cli/pkg/types"
)

// DefaultFileName is the recipe file name looked up when no explicit path
// is given.
const DefaultFileName = "bakefile.cue"

//go:embed bakefile_schema.cue
var bakefileSchema string

// Parse reads and parses a bakefile from the given path. The returned
// Bakefile has schema defaults applied and passed full validation.
func Parse(path types.FilesystemPath) (*Bakefile, error) {
	pathStr := string(path)
	data, err := os.ReadFile(pathStr)
	if err != nil {
		return nil, fmt.Errorf("failed to read bakefile at %s: %w", path, err)
	}

	return ParseBytes(data, pathStr)
}

// ParseBytes parses bakefile content from bytes.
// Uses cueutil.ParseAndDecodeString for the 3-step CUE parsing flow:
// compile schema → compile user data → validate and decode.
func ParseBytes(data []byte, path string) (*Bakefile, error) {
	result, err := cueutil.ParseAndDecodeString[Bakefile](
		bakefileSchema,
		data,
		"#Bakefile",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	bf := result.Value
	if err := bf.Validate(); err != nil {
		return nil, err
	}

	return bf, nil
}

// Find locates a bakefile starting from dir. An explicit file path is
// returned as-is after an existence check; a directory resolves to the
// default file name inside it.
func Find(dir string) (types.FilesystemPath, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("failed to locate bakefile: %w", err)
	}

	candidate := dir
	if info.IsDir() {
		candidate = filepath.Join(dir, DefaultFileName)
		if _, err := os.Stat(candidate); err != nil {
			return "", fmt.Errorf("no %s in %s: %w", DefaultFileName, dir, err)
		}
	}

	return types.FilesystemPath(candidate), nil
}
