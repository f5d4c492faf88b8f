// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container engines
// (Docker/Podman).
//
// The bake and verify pipelines drive builds and runs exclusively through
// the Engine interface, so unit tests can substitute a recorded
// exec.Command and never touch a real daemon.
package container
