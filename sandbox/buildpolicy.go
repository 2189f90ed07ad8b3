package sandbox

import (
	"path/filepath"
	"strings"
)

// BuildEnv supplies the environment BuildPolicy expands tokens against.
type BuildEnv struct {
	HomeDir string
	// WorkDir is used by presets that inspect the caller's working
	// directory (e.g. @git looks for WorkDir/.git). It defaults to
	// HomeDir when empty, matching callers that only care about
	// home-relative presets.
	WorkDir string
	Env     map[string]string
}

func (e BuildEnv) workDir() string {
	if e.WorkDir != "" {
		return e.WorkDir
	}
	return e.HomeDir
}

// BuildPolicy performs token expansion over a Policy's whitelist and
// blacklist: "~" becomes homeDir, "~/x" becomes homeDir/x, "$NAME" becomes
// env[NAME] or is left literal if unset. Presets are expanded into extra
// whitelist/blacklist entries first. Results are deduplicated preserving
// insertion order. BuildPolicy must not touch the filesystem.
func BuildPolicy(policy Policy, env BuildEnv) (Policy, error) {
	out := policy.clone()

	presetMounts, err := expandPresets(out.Filesystem.Presets, env)
	if err != nil {
		return Policy{}, err
	}
	for _, m := range presetMounts {
		switch m.list {
		case listWhitelist:
			out.Filesystem.Whitelist = append(out.Filesystem.Whitelist, m.path)
		case listBlacklist:
			out.Filesystem.Blacklist = append(out.Filesystem.Blacklist, m.path)
		}
	}

	out.Filesystem.Whitelist = expandTokens(out.Filesystem.Whitelist, env)
	out.Filesystem.Blacklist = expandTokens(out.Filesystem.Blacklist, env)

	out.Filesystem.Whitelist = dedupPreserveOrder(out.Filesystem.Whitelist)
	out.Filesystem.Blacklist = dedupPreserveOrder(out.Filesystem.Blacklist)

	return out, nil
}

func expandTokens(paths []string, env BuildEnv) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = expandToken(p, env)
	}
	return out
}

func expandToken(p string, env BuildEnv) string {
	switch {
	case p == "~":
		return env.HomeDir
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(env.HomeDir, strings.TrimPrefix(p, "~/"))
	}

	if strings.Contains(p, "$") {
		p = expandDollarVars(p, env.Env)
	}

	return p
}

// expandDollarVars replaces $NAME references using env, leaving unknown
// names literal. Only simple $NAME (not ${NAME}) forms are recognized,
// matching the pattern used throughout the pre-check and policy layers.
func expandDollarVars(s string, env map[string]string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isEnvNameByte(s[j]) {
			j++
		}
		if j == i+1 {
			b.WriteByte(s[i])
			i++
			continue
		}
		name := s[i+1 : j]
		if val, ok := env[name]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}

func isEnvNameByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
