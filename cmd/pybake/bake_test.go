// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"testing"

	"pybake-cli/internal/bake"
	"pybake-cli/internal/config"
)

func TestNewBakeConfig(t *testing.T) {
	// Not parallel: subtests mutate package-level appConfig and flag vars.
	saveState := func(t *testing.T) {
		t.Helper()
		origConfig := appConfig
		origForce, origNoCache, origSuffix := bakeForce, bakeNoCache, bakeTagSuffix
		t.Cleanup(func() {
			appConfig = origConfig
			bakeForce, bakeNoCache, bakeTagSuffix = origForce, origNoCache, origSuffix
		})
	}

	t.Run("defaults", func(t *testing.T) {
		saveState(t)
		appConfig = config.DefaultConfig()
		bakeForce, bakeNoCache, bakeTagSuffix = false, false, ""

		cfg := newBakeConfig()
		if cfg.Repository != bake.DefaultRepository {
			t.Errorf("Repository = %q, want %q", cfg.Repository, bake.DefaultRepository)
		}
		if cfg.ForceRebuild || cfg.NoCache {
			t.Error("ForceRebuild/NoCache should default to false")
		}
	})

	t.Run("config values applied", func(t *testing.T) {
		saveState(t)
		appConfig = config.DefaultConfig()
		appConfig.Bake.Repository = "team-images"
		appConfig.Bake.TagSuffix = "staging"
		bakeForce, bakeNoCache, bakeTagSuffix = false, false, ""

		cfg := newBakeConfig()
		if cfg.Repository != "team-images" {
			t.Errorf("Repository = %q, want %q", cfg.Repository, "team-images")
		}
		if cfg.TagSuffix != "staging" {
			t.Errorf("TagSuffix = %q, want %q", cfg.TagSuffix, "staging")
		}
	})

	t.Run("flags win over config", func(t *testing.T) {
		saveState(t)
		appConfig = config.DefaultConfig()
		appConfig.Bake.TagSuffix = "staging"
		bakeForce, bakeNoCache, bakeTagSuffix = true, true, "ci"

		cfg := newBakeConfig()
		if !cfg.ForceRebuild {
			t.Error("ForceRebuild flag not applied")
		}
		if !cfg.NoCache {
			t.Error("NoCache flag not applied")
		}
		if cfg.TagSuffix != "ci" {
			t.Errorf("TagSuffix = %q, want flag value %q", cfg.TagSuffix, "ci")
		}
	})
}

func TestCacheRepository(t *testing.T) {
	origConfig := appConfig
	t.Cleanup(func() { appConfig = origConfig })

	appConfig = config.DefaultConfig()
	appConfig.Bake.Repository = ""
	if got := cacheRepository(); got != bake.DefaultRepository {
		t.Errorf("cacheRepository() = %q, want %q", got, bake.DefaultRepository)
	}

	appConfig.Bake.Repository = "team-images"
	if got := cacheRepository(); got != "team-images" {
		t.Errorf("cacheRepository() = %q, want %q", got, "team-images")
	}
}
