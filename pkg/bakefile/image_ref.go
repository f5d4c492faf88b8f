// SPDX-License-Identifier: MPL-2.0

package bakefile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidImageRef is the sentinel error wrapped by InvalidImageRefError.
var ErrInvalidImageRef = errors.New("invalid image reference")

type (
	// ImageRef represents a container image reference for the base runtime.
	// A valid reference must carry an explicit version pin: either a tag that
	// is not "latest" or a digest. Unpinned references are rejected because
	// they make rebuilds drift (the base interpreter version would silently
	// change between builds).
	ImageRef string

	// InvalidImageRefError is returned when an ImageRef is empty, unpinned,
	// or pinned to the floating "latest" tag.
	InvalidImageRefError struct {
		Value  ImageRef
		Reason string
	}
)

// String returns the string representation of the ImageRef.
func (r ImageRef) String() string { return string(r) }

// Validate returns an error if the ImageRef is not an explicitly pinned
// image reference.
func (r ImageRef) Validate() error {
	ref := strings.TrimSpace(string(r))
	if ref == "" {
		return &InvalidImageRefError{Value: r, Reason: "must be non-empty"}
	}

	// Digest pins are always acceptable.
	if strings.Contains(ref, "@") {
		return nil
	}

	// Only the part after the last "/" can carry the tag; earlier colons
	// belong to a registry host:port prefix.
	name := ref
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		name = ref[idx+1:]
	}

	colon := strings.LastIndex(name, ":")
	if colon < 0 {
		return &InvalidImageRefError{Value: r, Reason: "must pin a tag or digest"}
	}

	tag := name[colon+1:]
	if tag == "" {
		return &InvalidImageRefError{Value: r, Reason: "tag must be non-empty"}
	}
	if tag == "latest" {
		return &InvalidImageRefError{Value: r, Reason: `floating tag "latest" is not a version pin`}
	}

	return nil
}

// Error implements the error interface.
func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid image reference %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidImageRef so callers can use errors.Is for programmatic detection.
func (e *InvalidImageRefError) Unwrap() error { return ErrInvalidImageRef }
