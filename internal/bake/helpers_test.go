// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCalculateFileHash(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(path, []byte("chromadb==0.4.24\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	hash1, err := CalculateFileHash(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hash1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(hash1))
	}

	hash2, err := CalculateFileHash(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash1 != hash2 {
		t.Error("hash is not deterministic")
	}

	if err := os.WriteFile(path, []byte("chromadb==0.5.0\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	hash3, err := CalculateFileHash(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash3 == hash1 {
		t.Error("expected a different hash after content change")
	}
}

func TestCalculateFileHash_Missing(t *testing.T) {
	t.Parallel()

	if _, err := CalculateFileHash(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCalculateDirHash(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.py"), []byte("a"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.py"), []byte("b"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	hash1, err := CalculateDirHash(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash2, err := CalculateDirHash(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash1 != hash2 {
		t.Error("dir hash is not deterministic")
	}

	if err := os.WriteFile(filepath.Join(dir, "c.py"), []byte("c"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	hash3, err := CalculateDirHash(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash3 == hash1 {
		t.Error("expected a different hash after adding a file")
	}
}

func TestCopyContextPath(t *testing.T) {
	t.Parallel()

	t.Run("file preserving relative layout", func(t *testing.T) {
		recipeDir := t.TempDir()
		contextDir := t.TempDir()

		if err := os.MkdirAll(filepath.Join(recipeDir, "deps"), 0o755); err != nil {
			t.Fatalf("failed to create subdir: %v", err)
		}
		src := filepath.Join(recipeDir, "deps", "requirements.txt")
		if err := os.WriteFile(src, []byte("chromadb\n"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if err := CopyContextPath(recipeDir, contextDir, filepath.Join("deps", "requirements.txt")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(contextDir, "deps", "requirements.txt"))
		if err != nil {
			t.Fatalf("copied file missing: %v", err)
		}
		if string(data) != "chromadb\n" {
			t.Errorf("copied content = %q", data)
		}
	})

	t.Run("directory", func(t *testing.T) {
		recipeDir := t.TempDir()
		contextDir := t.TempDir()

		if err := os.MkdirAll(filepath.Join(recipeDir, "src"), 0o755); err != nil {
			t.Fatalf("failed to create subdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(recipeDir, "src", "main.py"), []byte("pass\n"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if err := CopyContextPath(recipeDir, contextDir, "src"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(contextDir, "src", "main.py")); err != nil {
			t.Errorf("copied tree missing: %v", err)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		if err := CopyContextPath(t.TempDir(), t.TempDir(), "nope.py"); err == nil {
			t.Error("expected error for missing source")
		}
	})
}
