// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Errors built here carry the operation that failed, the resource involved,
// and concrete remediation steps, rendered as Markdown when a bake or verify
// run fails.
package issue
