// SPDX-License-Identifier: MPL-2.0

package bakefile

import (
	"errors"
	"testing"
)

func validBakefile() *Bakefile {
	return &Bakefile{
		BaseImage:      "python:3.10-slim",
		Workdir:        "/app",
		SystemPackages: []string{"build-essential"},
		Manifest:       "requirements.txt",
		SeedScript:     "chromadb_init.py",
		ModelCacheDir:  "/root/.cache/chroma/onnx_models",
		AppFiles:       []CopySpec{{Src: ".", Dest: "."}},
		ProbeModules:   []string{"chromadb"},
	}
}

func TestBakefileValidateOK(t *testing.T) {
	if err := validBakefile().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestBakefileValidateRejectsUnpinnedImage(t *testing.T) {
	bf := validBakefile()
	bf.BaseImage = "python:latest"

	err := bf.Validate()
	if !errors.Is(err, ErrInvalidBakefile) {
		t.Fatalf("expected InvalidBakefileError, got %v", err)
	}

	var invalid *InvalidBakefileError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidBakefileError, got %T", err)
	}
	if len(invalid.FieldErrs) != 1 || !errors.Is(invalid.FieldErrs[0], ErrInvalidImageRef) {
		t.Errorf("expected single image ref error, got %v", invalid.FieldErrs)
	}
}

func TestBakefileValidateRejectsRelativeWorkdir(t *testing.T) {
	bf := validBakefile()
	bf.Workdir = "app"

	if err := bf.Validate(); !errors.Is(err, ErrInvalidWorkdir) {
		t.Errorf("expected workdir error, got %v", err)
	}
}

func TestBakefileValidateRejectsEscapingPaths(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Bakefile)
	}{
		{name: "absolute manifest", mutate: func(b *Bakefile) { b.Manifest = "/etc/passwd" }},
		{name: "escaping manifest", mutate: func(b *Bakefile) { b.Manifest = "../requirements.txt" }},
		{name: "escaping seed script", mutate: func(b *Bakefile) { b.SeedScript = "../../seed.py" }},
		{name: "escaping copy source", mutate: func(b *Bakefile) { b.AppFiles = []CopySpec{{Src: "../src", Dest: "."}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bf := validBakefile()
			tt.mutate(bf)
			if err := bf.Validate(); !errors.Is(err, ErrInvalidContextPath) {
				t.Errorf("expected context path error, got %v", err)
			}
		})
	}
}

func TestBakefileValidateRejectsManagedEnvOverride(t *testing.T) {
	for _, key := range []string{"PYTHONPATH", "PYTHONUNBUFFERED"} {
		bf := validBakefile()
		bf.Env = map[string]string{key: "/elsewhere"}
		if err := bf.Validate(); err == nil {
			t.Errorf("expected error for managed env %s override", key)
		}
	}
}

func TestBakefileValidateRejectsBadExtraCommand(t *testing.T) {
	bf := validBakefile()
	bf.ExtraCommands = []ShellCommand{`echo "unterminated`}

	if err := bf.Validate(); !errors.Is(err, ErrInvalidShellCommand) {
		t.Errorf("expected shell command error, got %v", err)
	}
}

func TestBakefileValidateAggregatesErrors(t *testing.T) {
	bf := validBakefile()
	bf.BaseImage = "python"
	bf.Workdir = "relative"
	bf.Manifest = ""

	var invalid *InvalidBakefileError
	if err := bf.Validate(); !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidBakefileError, got %v", err)
	} else if len(invalid.FieldErrs) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(invalid.FieldErrs), invalid.FieldErrs)
	}
}

func TestRuntimeEnv(t *testing.T) {
	bf := validBakefile()
	bf.Workdir = "/srv/rag"
	bf.Env = map[string]string{"ANONYMIZED_TELEMETRY": "False"}

	env := bf.RuntimeEnv()

	if env["PYTHONPATH"] != "/srv/rag" {
		t.Errorf("PYTHONPATH = %q, want %q", env["PYTHONPATH"], "/srv/rag")
	}
	if env["PYTHONUNBUFFERED"] != "1" {
		t.Errorf("PYTHONUNBUFFERED = %q, want %q", env["PYTHONUNBUFFERED"], "1")
	}
	if env["ANONYMIZED_TELEMETRY"] != "False" {
		t.Errorf("expected user env to be preserved, got %v", env)
	}
}

func TestCopySpecValidate(t *testing.T) {
	if err := (CopySpec{Src: "src", Dest: "."}).Validate(); err != nil {
		t.Errorf("expected valid spec, got %v", err)
	}
	if err := (CopySpec{Src: "", Dest: "."}).Validate(); !errors.Is(err, ErrInvalidCopySpec) {
		t.Errorf("expected copy spec error, got %v", err)
	}
	if err := (CopySpec{Src: "src", Dest: " "}).Validate(); !errors.Is(err, ErrInvalidCopySpec) {
		t.Errorf("expected copy spec error for blank dest, got %v", err)
	}
}
