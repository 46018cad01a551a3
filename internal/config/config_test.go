package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spetr/vuexref/pkg/types"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory provider", func(c *Config) { c.IndexStore.Provider = "memory" }, false},
		{"unknown provider", func(c *Config) { c.IndexStore.Provider = "redis" }, true},
		{"plugin without name", func(c *Config) { c.IndexStore.Provider = "plugin" }, true},
		{"plugin with name", func(c *Config) {
			c.IndexStore.Provider = "plugin"
			c.IndexStore.Plugin = "snapshot-index"
		}, false},
		{"activation always", func(c *Config) { c.Analysis.Activation = "always" }, false},
		{"activation invalid", func(c *Config) { c.Analysis.Activation = "sometimes" }, true},
		{"fail_on warning", func(c *Config) { c.Analysis.FailOn = "warning" }, false},
		{"fail_on case sensitive", func(c *Config) { c.Analysis.FailOn = "ERROR" }, true},
		{"negative workers", func(c *Config) { c.Limits.Workers = -1 }, true},
		{"empty alias target", func(c *Config) { c.Store.Aliases["#"] = " " }, true},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			errs := Validate(cfg)

			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
			for _, err := range errs {
				if !errors.Is(err, types.ErrInvalidConfig) {
					t.Errorf("error %v does not wrap ErrInvalidConfig", err)
				}
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, warnings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want one", warnings)
	}
	if cfg.IndexStore.Provider != "sqlite" || cfg.Store.NuxtDir != "store" {
		t.Errorf("Load() did not return defaults: %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.IndexStore.Provider = "memory"
	cfg.Store.Entries = []string{"src/store/index.js"}
	cfg.Analysis.ReportSoft = true
	cfg.Analysis.FailOn = "warning"
	cfg.Limits.Workers = 3

	if err := Save(root, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(ConfigPath(root)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, _, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.IndexStore.Provider != "memory" || !loaded.Analysis.ReportSoft || loaded.Analysis.FailOn != "warning" {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Store.Entries) != 1 || loaded.Store.Entries[0] != "src/store/index.js" {
		t.Errorf("Store.Entries = %v", loaded.Store.Entries)
	}
	if loaded.Limits.Workers != 3 {
		t.Errorf("Limits.Workers = %d, want 3", loaded.Limits.Workers)
	}
	if loaded.Hash() != cfg.Hash() {
		t.Error("hash changed across save and load")
	}
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := "store:\n  nuxt_dir: app/store\nlimits:\n  timeout: 90s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Store.NuxtDir != "app/store" {
		t.Errorf("NuxtDir = %q, want app/store", cfg.Store.NuxtDir)
	}
	if cfg.Limits.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Limits.Timeout)
	}
	if cfg.IndexStore.Provider != "sqlite" || cfg.Analysis.FailOn != "error" || len(cfg.Index.Include) == 0 {
		t.Errorf("defaults not filled: %+v", cfg)
	}
}

func TestHash(t *testing.T) {
	a := DefaultConfig()
	b := a.Copy()
	if a.Hash() != b.Hash() {
		t.Error("copy has a different hash")
	}

	b.Store.Aliases["#"] = "lib"
	if a.Hash() == b.Hash() {
		t.Error("alias change did not change the hash")
	}
	if _, ok := a.Store.Aliases["#"]; ok {
		t.Error("Copy shares the alias map")
	}

	c := a.Copy()
	c.Analysis.ReportSoft = true
	if a.Hash() != c.Hash() {
		t.Error("analysis options should not affect the hash")
	}
}
