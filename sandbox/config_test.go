package sandbox

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_LoadConfig_DefaultsHaveDefaultBlacklist(t *testing.T) {
	t.Parallel()

	cfg := LoadConfig(LoadConfigOptions{})

	if cfg.Policy.Network.AllowNetwork() {
		t.Fatal("allowNetwork must be false by default")
	}
	if len(cfg.Policy.Filesystem.Blacklist) == 0 {
		t.Fatal("expected non-empty default blacklist")
	}
	if cfg.Provider == "" {
		t.Fatal("expected a non-empty default provider")
	}
}

func Test_LoadConfig_FileLayerMergesAndAppendsWhitelist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "sandbox.json")

	content := `{
		// trailing-comma and comment tolerant JSONC
		"enabled": false,
		"policy": {
			"filesystem": { "whitelist": ["/extra/path"] }
		},
	}`

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg := LoadConfig(LoadConfigOptions{ConfigPath: configPath})

	if cfg.Enabled {
		t.Fatal("expected file layer to disable sandboxing")
	}

	found := false
	for _, p := range cfg.Policy.Filesystem.Whitelist {
		if p == "/extra/path" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected whitelist to contain /extra/path, got %v", cfg.Policy.Filesystem.Whitelist)
	}

	for _, want := range DefaultBlacklist() {
		present := false
		for _, got := range cfg.Policy.Filesystem.Blacklist {
			if got == want {
				present = true
			}
		}
		if !present {
			t.Errorf("file layer must not remove default blacklist entry %q", want)
		}
	}
}

func Test_LoadConfig_InvalidFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "sandbox.json")
	if err := os.WriteFile(configPath, []byte("not json at all {{{"), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	var warned bool
	cfg := LoadConfig(LoadConfigOptions{
		ConfigPath: configPath,
		Debugf:     func(string, ...any) { warned = true },
	})

	if !warned {
		t.Fatal("expected a warning to be logged for an invalid config file")
	}
	if !cfg.Enabled {
		t.Fatal("expected fallback to default Config (enabled=true)")
	}
}

func Test_ValidateConfig_RejectsEmptyProvider(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Provider = ""

	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected validation error for empty provider")
	}
}

func Test_AddPermanentWhitelist_RoundTripsThroughLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "sandbox.json")

	if err := AddPermanentWhitelist("/permanent/path", configPath); err != nil {
		t.Fatalf("AddPermanentWhitelist: %v", err)
	}

	cfg := LoadConfig(LoadConfigOptions{ConfigPath: configPath})

	found := false
	for _, p := range cfg.Policy.Filesystem.Whitelist {
		if p == "/permanent/path" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected whitelist to contain /permanent/path after round trip, got %v", cfg.Policy.Filesystem.Whitelist)
	}

	// Adding the same path again must not duplicate the entry on disk.
	if err := AddPermanentWhitelist("/permanent/path", configPath); err != nil {
		t.Fatalf("AddPermanentWhitelist (second call): %v", err)
	}

	cfg2 := LoadConfig(LoadConfigOptions{ConfigPath: configPath})
	count := 0
	for _, p := range cfg2.Policy.Filesystem.Whitelist {
		if p == "/permanent/path" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one /permanent/path entry, got %d", count)
	}
}
