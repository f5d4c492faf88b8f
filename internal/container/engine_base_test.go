// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBaseCLIEngineBuild(t *testing.T) {
	t.Run("successful build invokes build subcommand", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		err := e.Build(context.Background(), BuildOptions{
			ContextDir: "/tmp/ctx",
			Dockerfile: "/tmp/ctx/Dockerfile",
			Tag:        "pybake:abc123",
		})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		mock.AssertInvocationCount(t, 1)
		mock.AssertFirstArg(t, "build")
		if !mock.HasArgPair("-t", "pybake:abc123") {
			t.Errorf("expected -t pybake:abc123 in %v", mock.LastArgs())
		}
		if !mock.HasArgPair("-f", "/tmp/ctx/Dockerfile") {
			t.Errorf("expected -f flag in %v", mock.LastArgs())
		}
	})

	t.Run("build output goes to provided writers", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		mock.Stdout = "Step 1/8 : FROM python:3.10-slim\n"
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		var out bytes.Buffer
		err := e.Build(context.Background(), BuildOptions{
			ContextDir: "/tmp/ctx",
			Tag:        "pybake:abc123",
			Stdout:     &out,
		})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !strings.Contains(out.String(), "FROM python:3.10-slim") {
			t.Errorf("expected build output in writer, got %q", out.String())
		}
	})

	t.Run("failed build returns actionable error", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		mock.FailOnSubcommand = "build"
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		err := e.Build(context.Background(), BuildOptions{
			ContextDir: "/tmp/ctx",
			Tag:        "pybake:abc123",
		})
		if err == nil {
			t.Fatal("Build() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "build image") {
			t.Errorf("expected operation in error, got %q", err.Error())
		}
	})

	t.Run("invalid options are rejected before execution", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		err := e.Build(context.Background(), BuildOptions{})
		if !errors.Is(err, ErrInvalidBuildOptions) {
			t.Errorf("Build() error = %v, want ErrInvalidBuildOptions", err)
		}
		mock.AssertInvocationCount(t, 0)
	})
}

func TestBaseCLIEngineRun(t *testing.T) {
	t.Run("zero exit code on success", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		result, err := e.Run(context.Background(), RunOptions{
			Image:   "pybake:abc123",
			Command: []string{"python", "--version"},
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !result.ExitCode.IsSuccess() {
			t.Errorf("ExitCode = %d, want 0", result.ExitCode)
		}
		mock.AssertFirstArg(t, "run")
	})

	t.Run("non-zero exit code is captured not returned", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		mock.ExitCode = 3
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		result, err := e.Run(context.Background(), RunOptions{
			Image:   "pybake:abc123",
			Command: []string{"python", "-c", "import sys; sys.exit(3)"},
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.ExitCode != 3 {
			t.Errorf("ExitCode = %d, want 3", result.ExitCode)
		}
		if result.Error != nil {
			t.Errorf("expected no infrastructure error, got %v", result.Error)
		}
	})

	t.Run("network none is passed through", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		_, err := e.Run(context.Background(), RunOptions{
			Image:   "pybake:abc123",
			Network: NetworkNone,
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !mock.HasArgPair("--network", "none") {
			t.Errorf("expected --network none in %v", mock.LastArgs())
		}
	})

	t.Run("invalid network mode is rejected", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		_, err := e.Run(context.Background(), RunOptions{
			Image:   "pybake:abc123",
			Network: "mesh",
		})
		if !errors.Is(err, ErrInvalidRunOptions) {
			t.Errorf("Run() error = %v, want ErrInvalidRunOptions", err)
		}
		mock.AssertInvocationCount(t, 0)
	})
}

func TestBaseCLIEngineListImages(t *testing.T) {
	t.Run("parses tags and skips untagged images", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		mock.Stdout = "pybake:abc123\npybake:def456\npybake:<none>\n"
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		tags, err := e.ListImages(context.Background(), "pybake")
		if err != nil {
			t.Fatalf("ListImages() error = %v", err)
		}
		if len(tags) != 2 {
			t.Fatalf("ListImages() returned %d tags, want 2: %v", len(tags), tags)
		}
		if tags[0] != "pybake:abc123" || tags[1] != "pybake:def456" {
			t.Errorf("unexpected tags: %v", tags)
		}
		mock.AssertFirstArg(t, "images")
	})

	t.Run("empty output yields no tags", func(t *testing.T) {
		mock := NewMockCommandRecorder()
		e := NewBaseCLIEngine("/usr/bin/docker",
			WithName("docker"),
			WithExecCommand(mock.CommandFunc(t)))

		tags, err := e.ListImages(context.Background(), "pybake")
		if err != nil {
			t.Fatalf("ListImages() error = %v", err)
		}
		if len(tags) != 0 {
			t.Errorf("expected no tags, got %v", tags)
		}
	})
}

func TestBaseCLIEngineRemoveImage(t *testing.T) {
	mock := NewMockCommandRecorder()
	e := NewBaseCLIEngine("/usr/bin/docker",
		WithName("docker"),
		WithExecCommand(mock.CommandFunc(t)))

	if err := e.RemoveImage(context.Background(), "pybake:abc123", true); err != nil {
		t.Fatalf("RemoveImage() error = %v", err)
	}
	mock.AssertFirstArg(t, "rmi")
	if !mock.HasArg("-f") {
		t.Errorf("expected -f in %v", mock.LastArgs())
	}
	if !mock.HasArg("pybake:abc123") {
		t.Errorf("expected image tag in %v", mock.LastArgs())
	}
}
