// SPDX-License-Identifier: MPL-2.0

package bake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"pybake-cli/internal/container"
	"pybake-cli/pkg/bakefile"
)

// Compile-time interface check
var _ Baker = (*ImageBaker)(nil)

// ImageBaker builds runtime images from bakefile recipes using a container
// engine.
//
// Baked images are cached based on a hash of:
// - Rendered Dockerfile (covers base image, workdir, packages, env, commands)
// - Dependency manifest contents
// - Seed script contents
// - Application file trees
//
// This allows fast reuse when the recipe inputs haven't changed.
type ImageBaker struct {
	engine container.Engine
	config *Config
	logger *log.Logger
}

// NewImageBaker creates a new ImageBaker.
func NewImageBaker(engine container.Engine, cfg *Config) *ImageBaker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ImageBaker{
		engine: engine,
		config: cfg,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "bake",
		}),
	}
}

// Config returns the baker's configuration.
func (b *ImageBaker) Config() *Config {
	return b.config
}

// Bake builds the image for a recipe, or resolves it from the image cache
// when an image for the same inputs already exists. A successful bake writes
// a lock file next to the bakefile recording the resolved inputs.
func (b *ImageBaker) Bake(ctx context.Context, recipe *bakefile.Bakefile, recipeDir string) (*Result, error) {
	cacheKey, inputs, err := b.calculateCacheKey(recipe, recipeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate cache key: %w", err)
	}

	bakedTag := b.buildBakedTag(cacheKey[:12])
	lockPath := filepath.Join(recipeDir, DefaultLockFileName)

	// Check if cached image exists (skip if a rebuild is forced)
	if !b.config.ForceRebuild && !b.config.NoCache {
		exists, _ := b.engine.ImageExists(ctx, bakedTag) //nolint:errcheck // Error treated as "not found"
		if exists {
			b.logger.Info("image up to date", "image", bakedTag)
			return &Result{
				ImageTag: bakedTag,
				CacheKey: cacheKey,
				CacheHit: true,
				LockPath: lockPath,
				EnvVars:  recipe.RuntimeEnv(),
			}, nil
		}
	}

	b.logger.Info("baking image", "image", bakedTag, "base", recipe.BaseImage)
	if err := b.buildBakedImage(ctx, recipe, recipeDir, bakedTag); err != nil {
		return nil, fmt.Errorf("failed to bake image: %w", err)
	}

	// Freshly built images can lag behind in the engine's image store.
	// Wait briefly for visibility; this is bookkeeping after a successful
	// build, not a retry of the build itself.
	err = container.RetryWithBackoff(ctx, 3, 100*time.Millisecond, func(int) (bool, error) {
		exists, existsErr := b.engine.ImageExists(ctx, bakedTag)
		if existsErr != nil {
			return true, existsErr
		}
		if !exists {
			return true, fmt.Errorf("image %s not yet visible", bakedTag)
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("baked image did not become visible: %w", err)
	}

	lock := &Lock{
		ImageTag:  bakedTag,
		CacheKey:  cacheKey,
		BaseImage: string(recipe.BaseImage),
		Engine:    b.engine.Name(),
		BakedAt:   time.Now().UTC(),
		Inputs:    inputs,
	}
	if err := WriteLockFile(lockPath, lock); err != nil {
		return nil, err
	}

	b.logger.Info("bake complete", "image", bakedTag, "lock", lockPath)
	return &Result{
		ImageTag: bakedTag,
		CacheKey: cacheKey,
		LockPath: lockPath,
		EnvVars:  recipe.RuntimeEnv(),
	}, nil
}

// Plan computes the Dockerfile, tag, and cache state a Bake would resolve to
// without building anything.
func (b *ImageBaker) Plan(ctx context.Context, recipe *bakefile.Bakefile, recipeDir string) (*BuildPlan, error) {
	cacheKey, _, err := b.calculateCacheKey(recipe, recipeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate cache key: %w", err)
	}

	bakedTag := b.buildBakedTag(cacheKey[:12])
	cached, _ := b.engine.ImageExists(ctx, bakedTag) //nolint:errcheck // Error treated as "not found"

	return &BuildPlan{
		Dockerfile: b.generateDockerfile(recipe),
		ImageTag:   bakedTag,
		CacheKey:   cacheKey,
		Cached:     cached,
	}, nil
}

// BakedImageTag returns the tag a bake of the recipe would produce without
// building it. Useful for checking whether an image is cached.
func (b *ImageBaker) BakedImageTag(recipe *bakefile.Bakefile, recipeDir string) (container.ImageTag, error) {
	cacheKey, _, err := b.calculateCacheKey(recipe, recipeDir)
	if err != nil {
		return "", err
	}
	return b.buildBakedTag(cacheKey[:12]), nil
}

// IsImageBaked checks if an image for the recipe already exists locally.
func (b *ImageBaker) IsImageBaked(ctx context.Context, recipe *bakefile.Bakefile, recipeDir string) (bool, error) {
	tag, err := b.BakedImageTag(recipe, recipeDir)
	if err != nil {
		return false, err
	}
	return b.engine.ImageExists(ctx, tag)
}

// buildBakedTag constructs the image tag with optional suffix.
// When TagSuffix is set, the tag format is "<repository>:<hash>-<suffix>".
// This enables test isolation by making each test's images unique.
func (b *ImageBaker) buildBakedTag(hash string) container.ImageTag {
	repository := b.config.Repository
	if repository == "" {
		repository = DefaultRepository
	}
	if b.config.TagSuffix != "" {
		return container.ImageTag(fmt.Sprintf("%s:%s-%s", repository, hash, b.config.TagSuffix))
	}
	return container.ImageTag(fmt.Sprintf("%s:%s", repository, hash))
}

// calculateCacheKey generates a unique key from every input that shapes the
// image, plus the per-input digests that fed it.
func (b *ImageBaker) calculateCacheKey(recipe *bakefile.Bakefile, recipeDir string) (string, map[string]string, error) {
	h := sha256.New()
	inputs := make(map[string]string)

	// The rendered Dockerfile covers the base image, workdir, system
	// packages, env, and extra commands in one stable serialization.
	dockerfile := b.generateDockerfile(recipe)
	dockerfileHash := sha256.Sum256([]byte(dockerfile))
	inputs["dockerfile"] = hex.EncodeToString(dockerfileHash[:])
	h.Write([]byte("dockerfile:" + inputs["dockerfile"]))

	manifestHash, err := CalculateFileHash(filepath.Join(recipeDir, recipe.Manifest))
	if err != nil {
		return "", nil, manifestNotFoundError(recipe.Manifest, recipeDir, err)
	}
	inputs["manifest"] = manifestHash
	h.Write([]byte("manifest:" + manifestHash))

	if recipe.SeedScript != "" {
		seedHash, err := CalculateFileHash(filepath.Join(recipeDir, recipe.SeedScript))
		if err != nil {
			return "", nil, seedScriptError(recipe.SeedScript, recipeDir, err)
		}
		inputs["seed_script"] = seedHash
		h.Write([]byte("seed:" + seedHash))
	}

	for _, spec := range recipe.AppFiles {
		srcPath := filepath.Join(recipeDir, spec.Src)
		info, err := os.Stat(srcPath)
		if err != nil {
			return "", nil, fmt.Errorf("failed to stat app file %s: %w", spec.Src, err)
		}

		var fileHash string
		if info.IsDir() {
			fileHash, err = CalculateDirHash(srcPath)
		} else {
			fileHash, err = CalculateFileHash(srcPath)
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to hash app file %s: %w", spec.Src, err)
		}
		inputs["app:"+spec.Src] = fileHash
		h.Write([]byte("app:" + spec.Src + ":" + fileHash))
	}

	return hex.EncodeToString(h.Sum(nil)), inputs, nil
}

// buildBakedImage renders the build context and invokes the engine build.
func (b *ImageBaker) buildBakedImage(ctx context.Context, recipe *bakefile.Bakefile, recipeDir string, tag container.ImageTag) error {
	buildCtx, cleanup, err := b.prepareBuildContext(recipe, recipeDir)
	if err != nil {
		return err
	}
	defer cleanup()

	buildOutput := b.config.BuildOutput
	if buildOutput == nil {
		buildOutput = os.Stderr
	}

	buildOpts := container.BuildOptions{
		ContextDir: buildCtx,
		Dockerfile: "Dockerfile",
		Tag:        tag,
		NoCache:    b.config.NoCache,
		Stdout:     buildOutput,
		Stderr:     buildOutput,
	}

	return b.engine.Build(ctx, buildOpts)
}

// prepareBuildContext creates a temporary directory holding the Dockerfile
// and every file the recipe copies into the image.
//
// Note: Docker installed via Snap has limited filesystem access:
// - Cannot access /tmp (different namespace)
// - Cannot access hidden directories like ~/.cache (home interface restriction)
// - CAN access visible directories in $HOME like ~/pybake-build
//
// We use a visible directory in the user's home as the build context location.
func (b *ImageBaker) prepareBuildContext(recipe *bakefile.Bakefile, recipeDir string) (buildContextDir string, cleanup func(), err error) {
	var buildContextParent string

	// Try HOME first, but verify it actually exists (handles cases like
	// HOME=/no-home or misconfigured environments)
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		if _, statErr := os.Stat(home); statErr == nil {
			buildContextParent = filepath.Join(home, "pybake-build")
		}
	}

	// Fallback if HOME is unavailable or doesn't exist
	if buildContextParent == "" {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			buildContextParent = filepath.Join(cwd, ".pybake-build")
		} else {
			// Last resort: use system temp (may fail with Snap Docker)
			buildContextParent = filepath.Join(os.TempDir(), "pybake-build")
		}
	}

	if mkdirErr := os.MkdirAll(buildContextParent, 0o755); mkdirErr != nil {
		return "", nil, fmt.Errorf("failed to create build context parent directory: %w", mkdirErr)
	}

	tmpDir, err := os.MkdirTemp(buildContextParent, "ctx-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	cleanup = func() {
		_ = os.RemoveAll(tmpDir) // Cleanup temp dir; error non-critical
	}

	if err := CopyContextPath(recipeDir, tmpDir, recipe.Manifest); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to copy manifest: %w", err)
	}

	if recipe.SeedScript != "" {
		if err := CopyContextPath(recipeDir, tmpDir, recipe.SeedScript); err != nil {
			cleanup()
			return "", nil, seedScriptError(recipe.SeedScript, recipeDir, err)
		}
	}

	for _, spec := range recipe.AppFiles {
		if err := CopyContextPath(recipeDir, tmpDir, spec.Src); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("failed to copy app file %s: %w", spec.Src, err)
		}
	}

	dockerfile := b.generateDockerfile(recipe)
	dockerfilePath := filepath.Join(tmpDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	return tmpDir, cleanup, nil
}
