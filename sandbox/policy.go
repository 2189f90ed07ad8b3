package sandbox

// Policy is an immutable-once-built value object describing the filesystem
// and network restrictions a Backend enforces.
//
// Policy values are produced by BuildPolicy; construct the zero value only
// for tests or as an input to BuildPolicy.
type Policy struct {
	Filesystem FilesystemPolicy
	// Network is always the zero value; AllowNetwork is not a settable
	// bool field on purpose — see NetworkPolicy.
	Network NetworkPolicy
}

// FilesystemPolicy holds the whitelist and blacklist path/glob sets. Both
// are unordered sets represented as ordered, deduplicated slices: absolute
// paths, home-relative tokens (~, ~/x), $VAR references, and glob patterns
// using * and **.
type FilesystemPolicy struct {
	Whitelist []string
	Blacklist []string
	// Presets are toggle names (@base, @caches, @agents, @git, @lint/go,
	// ...) that expand into additional Whitelist/Blacklist entries before
	// token expansion runs. A nil slice means the default preset set; an
	// explicit empty slice means none.
	Presets []string
}

// NetworkPolicy is a literal constant, not a free boolean: every Policy's
// network access is hard-denied. The zero value is the only value.
type NetworkPolicy struct {
	allowNetwork bool // always false; unexported so it cannot be set to true
}

// AllowNetwork reports whether network access is permitted. It always
// returns false; the method exists so callers can express the invariant
// without reaching into an unexported field.
func (NetworkPolicy) AllowNetwork() bool { return false }

// DefaultBlacklist is the non-removable baseline blacklist. Every layer
// merge appends to, and never removes from, this set.
func DefaultBlacklist() []string {
	return []string{
		"~/.ssh",
		"~/.aws",
		"~/.gnupg",
		"~/.config/gcloud",
		"~/.azure",
		"/etc/passwd",
		"/etc/shadow",
		"**/.env",
		"**/.envrc",
		"**/.env.local",
		"**/credentials.json",
		"**/secrets.json",
	}
}

// clone returns a deep copy of p so callers can mutate the result without
// aliasing the original slices. A nil Presets slice stays nil and an empty
// one stays empty, since the two mean different things.
func (p Policy) clone() Policy {
	presets := p.Filesystem.Presets
	if presets != nil {
		presets = append([]string{}, presets...)
	}
	return Policy{
		Filesystem: FilesystemPolicy{
			Whitelist: append([]string(nil), p.Filesystem.Whitelist...),
			Blacklist: append([]string(nil), p.Filesystem.Blacklist...),
			Presets:   presets,
		},
	}
}

// dedupPreserveOrder removes duplicate strings, keeping the first
// occurrence.
func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// appendUnique appends items from extra to base that are not already
// present in base, preserving base's existing order and extra's relative
// order for newly added items. This implements the Config merge's
// "whitelist/blacklist append-unique preserving order" rule.
func appendUnique(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	out := append([]string(nil), base...)
	for _, b := range base {
		seen[b] = struct{}{}
	}
	for _, e := range extra {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
