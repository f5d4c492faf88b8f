// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pybake-cli/internal/container"
	"pybake-cli/internal/issue"
	"pybake-cli/pkg/bakefile"
)

// mockEngine implements container.Engine for testing bake logic without
// requiring real Docker/Podman.
type mockEngine struct {
	// imageExistsResult controls what ImageExists returns before any build
	imageExistsResult bool
	// imageExistsErr controls the error ImageExists returns
	imageExistsErr error
	// buildErr controls the error Build returns
	buildErr error

	// buildCalls records Build invocations for assertion
	buildCalls []container.BuildOptions
	// imageExistsCalls records ImageExists invocations
	imageExistsCalls []string
	// removedImages records RemoveImage invocations
	removedImages []string
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		buildCalls:       make([]container.BuildOptions, 0),
		imageExistsCalls: make([]string, 0),
	}
}

func (m *mockEngine) Name() string    { return "mock" }
func (m *mockEngine) Available() bool { return true }

func (m *mockEngine) Version(_ context.Context) (string, error) {
	return "mock-1.0.0", nil
}

func (m *mockEngine) Build(_ context.Context, opts container.BuildOptions) error {
	m.buildCalls = append(m.buildCalls, opts)
	return m.buildErr
}

func (m *mockEngine) Run(_ context.Context, _ container.RunOptions) (*container.RunResult, error) {
	return &container.RunResult{}, nil
}

func (m *mockEngine) ImageExists(_ context.Context, image container.ImageTag) (bool, error) {
	m.imageExistsCalls = append(m.imageExistsCalls, string(image))
	if m.imageExistsErr != nil {
		return false, m.imageExistsErr
	}
	// A successful build makes the image visible
	if len(m.buildCalls) > 0 {
		return true, nil
	}
	return m.imageExistsResult, nil
}

func (m *mockEngine) InspectImage(_ context.Context, _ container.ImageTag) (string, error) {
	return "{}", nil
}

func (m *mockEngine) ListImages(_ context.Context, _ string) ([]container.ImageTag, error) {
	return nil, nil
}

func (m *mockEngine) RemoveImage(_ context.Context, image container.ImageTag, _ bool) error {
	m.removedImages = append(m.removedImages, string(image))
	return nil
}

// testRecipe writes a minimal recipe layout (manifest, seed script, one app
// file) into dir and returns the matching Bakefile.
func testRecipe(t *testing.T, dir string) *bakefile.Bakefile {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("chromadb==0.4.24\n"), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "chromadb_init.py"), []byte("print('seed')\n"), 0o644); err != nil {
		t.Fatalf("failed to write seed script: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('app')\n"), 0o644); err != nil {
		t.Fatalf("failed to write app file: %v", err)
	}

	return &bakefile.Bakefile{
		BaseImage:      "python:3.10-slim",
		Workdir:        "/app",
		SystemPackages: []string{"build-essential"},
		Manifest:       "requirements.txt",
		SeedScript:     "chromadb_init.py",
		ModelCacheDir:  "/root/.cache/chroma",
		AppFiles:       []bakefile.CopySpec{{Src: "main.py", Dest: "main.py"}},
		ProbeModules:   []string{"chromadb"},
	}
}

func testConfig() *Config {
	return &Config{
		Repository:  "pybake-test",
		BuildOutput: os.Stderr,
	}
}

func TestImageBaker_Bake_CacheHit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	engine := newMockEngine()
	engine.imageExistsResult = true // Simulate cached image exists

	baker := NewImageBaker(engine, testConfig())

	result, err := baker.Bake(context.Background(), recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CacheHit {
		t.Error("expected cache hit")
	}
	if len(engine.buildCalls) > 0 {
		t.Error("expected no build calls on cache hit")
	}
	if !strings.HasPrefix(string(result.ImageTag), "pybake-test:") {
		t.Errorf("unexpected image tag %q", result.ImageTag)
	}
}

func TestImageBaker_Bake_BuildsOnCacheMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	engine := newMockEngine()
	baker := NewImageBaker(engine, testConfig())

	result, err := baker.Bake(context.Background(), recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CacheHit {
		t.Error("expected cache miss")
	}
	if len(engine.buildCalls) != 1 {
		t.Fatalf("expected 1 build call, got %d", len(engine.buildCalls))
	}

	opts := engine.buildCalls[0]
	if opts.Tag != result.ImageTag {
		t.Errorf("build tag %q does not match result tag %q", opts.Tag, result.ImageTag)
	}
	if opts.Dockerfile != "Dockerfile" {
		t.Errorf("expected Dockerfile in context root, got %q", opts.Dockerfile)
	}

	// The lock file records the resolved inputs
	lock, err := ReadLockFile(result.LockPath)
	if err != nil {
		t.Fatalf("failed to read lock: %v", err)
	}
	if lock.ImageTag != result.ImageTag {
		t.Errorf("lock image tag %q does not match result %q", lock.ImageTag, result.ImageTag)
	}
	if lock.Engine != "mock" {
		t.Errorf("lock engine = %q, want mock", lock.Engine)
	}
	if lock.Inputs["manifest"] == "" {
		t.Error("lock is missing the manifest digest")
	}
}

func TestImageBaker_Bake_ForceRebuildSkipsCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	engine := newMockEngine()
	engine.imageExistsResult = true // Image exists, but force rebuild ignores it

	cfg := testConfig()
	cfg.Apply(WithForceRebuild(true))
	baker := NewImageBaker(engine, cfg)

	result, err := baker.Bake(context.Background(), recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CacheHit {
		t.Error("expected no cache hit with force rebuild")
	}
	if len(engine.buildCalls) != 1 {
		t.Errorf("expected 1 build call, got %d", len(engine.buildCalls))
	}
}

func TestImageBaker_Bake_NoCacheDisablesLayerCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	engine := newMockEngine()
	cfg := testConfig()
	cfg.Apply(WithNoCache(true))
	baker := NewImageBaker(engine, cfg)

	if _, err := baker.Bake(context.Background(), recipe, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(engine.buildCalls) != 1 {
		t.Fatalf("expected 1 build call, got %d", len(engine.buildCalls))
	}
	if !engine.buildCalls[0].NoCache {
		t.Error("expected NoCache build option")
	}
}

func TestImageBaker_Bake_MissingManifestFailsBeforeBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)
	if err := os.Remove(filepath.Join(dir, "requirements.txt")); err != nil {
		t.Fatalf("failed to remove manifest: %v", err)
	}

	engine := newMockEngine()
	baker := NewImageBaker(engine, testConfig())

	_, err := baker.Bake(context.Background(), recipe, dir)
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if !strings.Contains(err.Error(), "manifest") {
		t.Errorf("expected manifest in error, got %q", err.Error())
	}
	if len(engine.buildCalls) > 0 {
		t.Error("expected no build calls when the manifest is missing")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.ManifestNotFoundId {
		t.Errorf("expected manifest catalog id on error, got %v", err)
	}
}

func TestImageBaker_Bake_MissingSeedScriptFailsBeforeBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)
	if err := os.Remove(filepath.Join(dir, "chromadb_init.py")); err != nil {
		t.Fatalf("failed to remove seed script: %v", err)
	}

	engine := newMockEngine()
	baker := NewImageBaker(engine, testConfig())

	_, err := baker.Bake(context.Background(), recipe, dir)
	if err == nil {
		t.Fatal("expected error for missing seed script")
	}
	if len(engine.buildCalls) > 0 {
		t.Error("expected no build calls when the seed script is missing")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.SeedScriptFailedId {
		t.Errorf("expected seed script catalog id on error, got %v", err)
	}
}

func TestImageBaker_Bake_BuildFailureAborts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	engine := newMockEngine()
	engine.buildErr = os.ErrPermission
	baker := NewImageBaker(engine, testConfig())

	_, err := baker.Bake(context.Background(), recipe, dir)
	if err == nil {
		t.Fatal("expected build failure to propagate")
	}

	// No lock is written for a failed bake
	if _, statErr := os.Stat(filepath.Join(dir, DefaultLockFileName)); !os.IsNotExist(statErr) {
		t.Error("expected no lock file after a failed bake")
	}
}

func TestImageBaker_TagDeterminism(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	baker := NewImageBaker(newMockEngine(), testConfig())

	tag1, err := baker.BakedImageTag(recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tag2, err := baker.BakedImageTag(recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag1 != tag2 {
		t.Errorf("tags differ for unchanged inputs: %q vs %q", tag1, tag2)
	}

	// Changing the manifest changes the tag
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("chromadb==0.5.0\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite manifest: %v", err)
	}
	tag3, err := baker.BakedImageTag(recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag3 == tag1 {
		t.Error("expected a different tag after the manifest changed")
	}
}

func TestImageBaker_TagSuffix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	cfg := testConfig()
	cfg.Apply(WithTagSuffix("t1"))
	baker := NewImageBaker(newMockEngine(), cfg)

	tag, err := baker.BakedImageTag(recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(string(tag), "-t1") {
		t.Errorf("expected -t1 suffix on %q", tag)
	}
}

func TestImageBaker_Plan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recipe := testRecipe(t, dir)

	engine := newMockEngine()
	baker := NewImageBaker(engine, testConfig())

	plan, err := baker.Plan(context.Background(), recipe, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Cached {
		t.Error("expected uncached plan")
	}
	if !strings.Contains(plan.Dockerfile, "FROM python:3.10-slim") {
		t.Error("plan is missing the rendered Dockerfile")
	}
	if len(engine.buildCalls) > 0 {
		t.Error("expected no build calls from Plan")
	}
}
