// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pybake-cli/pkg/types"
)

const (
	// EngineTypeDocker selects the Docker CLI engine.
	EngineTypeDocker EngineType = "docker"
	// EngineTypePodman selects the Podman CLI engine.
	EngineTypePodman EngineType = "podman"

	// NetworkDefault leaves the engine's default network in place.
	NetworkDefault NetworkMode = ""
	// NetworkNone disables all networking for the container. Offline
	// verification runs baked images in this mode.
	NetworkNone NetworkMode = "none"
	// NetworkHost shares the host network namespace.
	NetworkHost NetworkMode = "host"
	// NetworkBridge uses the engine's bridge network.
	NetworkBridge NetworkMode = "bridge"
)

var (
	// ErrInvalidImageTag is the sentinel error wrapped by InvalidImageTagError.
	ErrInvalidImageTag = errors.New("invalid image tag")
	// ErrInvalidNetworkMode is the sentinel error wrapped by InvalidNetworkModeError.
	ErrInvalidNetworkMode = errors.New("invalid network mode")
	// ErrInvalidBuildOptions is the sentinel error wrapped by InvalidBuildOptionsError.
	ErrInvalidBuildOptions = errors.New("invalid build options")
	// ErrInvalidRunOptions is the sentinel error wrapped by InvalidRunOptionsError.
	ErrInvalidRunOptions = errors.New("invalid run options")
)

type (
	// Engine defines the interface for container operations.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available checks if the engine is available on the system.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)

		// Build builds an image from a Dockerfile.
		Build(ctx context.Context, opts BuildOptions) error
		// Run runs a command in a container.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
		// ImageExists checks if an image exists locally.
		ImageExists(ctx context.Context, image ImageTag) (bool, error)
		// InspectImage returns the engine's JSON description of an image.
		InspectImage(ctx context.Context, image ImageTag) (string, error)
		// ListImages returns locally available image tags matching a repository prefix.
		ListImages(ctx context.Context, repository string) ([]ImageTag, error)
		// RemoveImage removes an image.
		RemoveImage(ctx context.Context, image ImageTag, force bool) error
	}

	// EngineType identifies the container engine type.
	EngineType string

	// ImageTag is a local image tag (e.g., "pybake:3f9c2a1b04de").
	ImageTag string

	// InvalidImageTagError is returned when an ImageTag is empty or whitespace-only.
	InvalidImageTagError struct {
		Value ImageTag
	}

	// ContainerID identifies a created container.
	ContainerID string

	// NetworkMode selects the container network configuration.
	// The zero value ("") means the engine default.
	NetworkMode string

	// InvalidNetworkModeError is returned when a NetworkMode is not recognized.
	InvalidNetworkModeError struct {
		Value NetworkMode
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Dockerfile is the path to the Dockerfile (relative to ContextDir).
		Dockerfile string
		// Tag is the image tag.
		Tag ImageTag
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
		// NoCache disables the build layer cache.
		NoCache bool
		// Stdout is where to write build output.
		Stdout io.Writer
		// Stderr is where to write build errors.
		Stderr io.Writer
	}

	// InvalidBuildOptionsError is returned when BuildOptions has invalid fields.
	InvalidBuildOptionsError struct {
		FieldErrs []error
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Image is the image to run.
		Image ImageTag
		// Command is the command to run (after the entrypoint, if any).
		Command []string
		// Entrypoint overrides the image entrypoint when non-empty.
		Entrypoint string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env contains environment variables.
		Env map[string]string
		// Network selects the container network mode.
		Network NetworkMode
		// Remove automatically removes the container after exit.
		Remove bool
		// Name is the container name.
		Name string
		// Stdin is the standard input.
		Stdin io.Reader
		// Stdout is where to write standard output.
		Stdout io.Writer
		// Stderr is where to write standard error.
		Stderr io.Writer
	}

	// InvalidRunOptionsError is returned when RunOptions has invalid fields.
	InvalidRunOptionsError struct {
		FieldErrs []error
	}

	// RunResult contains the result of running a container.
	RunResult struct {
		// ContainerID is the container ID, when known.
		ContainerID ContainerID
		// ExitCode is the exit code of the containerized process.
		ExitCode types.ExitCode
		// Error contains any infrastructure error (engine missing, etc.).
		Error error
	}

	// ErrEngineNotAvailable is returned when a container engine is not available.
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
	}
)

// String returns the string representation of the ImageTag.
func (t ImageTag) String() string { return string(t) }

// Validate returns an error if the ImageTag is empty or whitespace-only.
func (t ImageTag) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return &InvalidImageTagError{Value: t}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidImageTagError) Error() string {
	return fmt.Sprintf("invalid image tag %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidImageTag for errors.Is() compatibility.
func (e *InvalidImageTagError) Unwrap() error { return ErrInvalidImageTag }

// String returns the string representation of the NetworkMode.
func (m NetworkMode) String() string { return string(m) }

// Validate returns an error if the NetworkMode is not one of the defined modes.
// The zero value ("") is valid and means the engine default.
func (m NetworkMode) Validate() error {
	switch m {
	case NetworkDefault, NetworkNone, NetworkHost, NetworkBridge:
		return nil
	default:
		return &InvalidNetworkModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidNetworkModeError) Error() string {
	return fmt.Sprintf("invalid network mode %q (valid: empty, none, host, bridge)", e.Value)
}

// Unwrap returns ErrInvalidNetworkMode for errors.Is() compatibility.
func (e *InvalidNetworkModeError) Unwrap() error { return ErrInvalidNetworkMode }

// Validate returns an error if any typed field of the BuildOptions is invalid.
func (o BuildOptions) Validate() error {
	var errs []error
	if strings.TrimSpace(o.ContextDir) == "" {
		errs = append(errs, errors.New("context directory must be non-empty"))
	}
	if err := o.Tag.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidBuildOptionsError{FieldErrs: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidBuildOptionsError) Error() string {
	return fmt.Sprintf("invalid build options: %d field error(s)", len(e.FieldErrs))
}

// Unwrap returns ErrInvalidBuildOptions for errors.Is() compatibility.
func (e *InvalidBuildOptionsError) Unwrap() error { return ErrInvalidBuildOptions }

// Validate returns an error if any typed field of the RunOptions is invalid.
func (o RunOptions) Validate() error {
	var errs []error
	if err := o.Image.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Network.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidRunOptionsError{FieldErrs: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidRunOptionsError) Error() string {
	return fmt.Sprintf("invalid run options: %d field error(s)", len(e.FieldErrs))
}

// Unwrap returns ErrInvalidRunOptions for errors.Is() compatibility.
func (e *InvalidRunOptionsError) Unwrap() error { return ErrInvalidRunOptions }

// Error implements the error interface.
func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a new container engine based on preference, falling back
// to the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
