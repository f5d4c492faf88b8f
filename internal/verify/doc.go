// SPDX-License-Identifier: MPL-2.0

// Package verify runs offline acceptance checks against a baked image.
//
// Every check executes inside a container started from the image with
// networking disabled, proving the image is self-contained: the model cache
// is populated, the module search path works, output is unbuffered, and the
// declared probe modules import without reaching the network.
package verify
