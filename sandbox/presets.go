package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// This file implements preset expansion: convenience bundles that add
// entries to a Policy's whitelist/blacklist for common "developer sandbox"
// needs. Presets never emit direct mounts; the platform adapters decide how
// to realize whitelist/blacklist entries on a given OS.
//
// Presets are applied in a fixed order for determinism.

type presetList int

const (
	listWhitelist presetList = iota
	listBlacklist
)

type presetEntry struct {
	list presetList
	path string
}

func whitelistEntry(path string) presetEntry { return presetEntry{listWhitelist, path} }
func blacklistEntry(path string) presetEntry { return presetEntry{listBlacklist, path} }

// expandPresets expands preset toggles into whitelist/blacklist entries.
//
// Supported presets: @all (default), @base, @caches, @agents, @git,
// @lint/all, @lint/ts, @lint/go, @lint/python. Presets can be negated by
// prefixing with '!'. A nil slice means "defaults"; an explicit empty
// slice means "no presets".
func expandPresets(presets []string, env BuildEnv) ([]presetEntry, error) {
	enabled, err := resolvePresetToggles(presets)
	if err != nil {
		return nil, err
	}

	var entries []presetEntry

	if enabled["@base"] {
		entries = append(entries,
			whitelistEntry(env.HomeDir),
			blacklistEntry("~/.ssh"),
			blacklistEntry("~/.gnupg"),
			blacklistEntry("~/.aws"),
		)
	}

	if enabled["@caches"] {
		entries = append(entries,
			whitelistEntry("~/.cache"),
			whitelistEntry("~/.bun"),
			whitelistEntry("~/go"),
			whitelistEntry("~/.npm"),
			whitelistEntry("~/.cargo"),
		)
	}

	if enabled["@agents"] {
		entries = append(entries,
			whitelistEntry("~/.codex"),
			whitelistEntry("~/.claude"),
			whitelistEntry("~/.claude.json"),
			whitelistEntry("~/.pi"),
		)
	}

	if enabled["@git"] {
		entries = append(entries, gitPresetRules(env.workDir())...)
	}

	if enabled["@lint/ts"] {
		entries = append(entries, lintEntries(env.workDir(), []string{
			"biome.json", "biome.jsonc", ".eslintrc", ".eslintrc.js",
			".eslintrc.json", "eslint.config.js", "eslint.config.mjs",
			".oxlintrc.json", ".prettierrc", ".prettierrc.json",
			"prettier.config.js", "tsconfig.json", "tsconfig.build.json",
		})...)
	}

	if enabled["@lint/go"] {
		entries = append(entries, lintEntries(env.workDir(), []string{
			".golangci.yml", ".golangci.yaml", ".golangci.toml", ".golangci.json",
		})...)
	}

	if enabled["@lint/python"] {
		entries = append(entries, lintEntries(env.workDir(), []string{
			"pyproject.toml", "setup.cfg", ".flake8", "mypy.ini",
			".mypy.ini", ".pylintrc", "ruff.toml", ".ruff.toml",
		})...)
	}

	return entries, nil
}

func lintEntries(workDir string, files []string) []presetEntry {
	out := make([]presetEntry, 0, len(files)+1)
	for _, f := range files {
		out = append(out, whitelistEntry(filepath.Join(workDir, f)))
	}
	out = append(out, whitelistEntry(filepath.Join(workDir, ".editorconfig")))
	return out
}

// resolvePresetToggles computes the final enabled/disabled state for each
// preset name. Toggle semantics are "last one wins"; @all and @lint/all
// expand to multiple underlying presets.
func resolvePresetToggles(presets []string) (map[string]bool, error) {
	known := map[string]bool{
		"@all": true, "@base": true, "@caches": true, "@agents": true,
		"@git": true, "@lint/all": true, "@lint/ts": true, "@lint/go": true,
		"@lint/python": true,
	}

	if presets == nil {
		presets = []string{"@all"}
	}

	state := make(map[string]bool)

	for _, name := range presets {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("unknown preset: empty preset name")
		}

		enable := true
		if strings.HasPrefix(name, "!") {
			enable = false
			name = strings.TrimPrefix(name, "!")
		}

		if !known[name] {
			return nil, fmt.Errorf("unknown preset: %s", name)
		}

		switch name {
		case "@all":
			for _, p := range []string{"@base", "@caches", "@agents", "@git", "@lint/all"} {
				applyPresetMacro(state, p, enable)
			}
		default:
			applyPresetMacro(state, name, enable)
		}
	}

	return state, nil
}

func applyPresetMacro(state map[string]bool, name string, enable bool) {
	switch name {
	case "@lint/all":
		state["@lint/ts"] = enable
		state["@lint/go"] = enable
		state["@lint/python"] = enable
	default:
		state[name] = enable
	}
}

// gitPresetRules protects workDir's git hooks and config from modification
// by blacklisting them. BuildPolicy never touches the filesystem, so this
// never stats or reads .git to resolve a worktree's real gitdir — it
// always blacklists the plain workDir/.git/{hooks,config} path. It also
// only covers hooks/config, not a full RO/RW ref split, since Policy has
// only whitelist/blacklist, not a read/write distinction — see DESIGN.md.
func gitPresetRules(workDir string) []presetEntry {
	gitDir := filepath.Join(workDir, ".git")
	return []presetEntry{
		blacklistEntry(filepath.Join(gitDir, "hooks")),
		blacklistEntry(filepath.Join(gitDir, "config")),
	}
}
