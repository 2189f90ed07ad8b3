package sandbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Debugf is an optional diagnostic hook. Stateful types accept one instead
// of forcing a logging framework on their caller; cmd/synapse wires it to
// slog.
type Debugf func(format string, args ...any)

func (d Debugf) call(format string, args ...any) {
	if d != nil {
		d(format, args...)
	}
}

// Config is materialized once at manager startup by LoadConfig.
type Config struct {
	Enabled         bool
	Provider        string
	Policy          Policy
	ProviderOptions map[string]any
}

// configLayer is the on-the-wire shape of a config layer: every field is
// optional so a partial layer only overrides what it sets.
type configLayer struct {
	Enabled         *bool            `json:"enabled,omitempty"`
	Provider        *string          `json:"provider,omitempty"`
	Policy          *policyLayer     `json:"policy,omitempty"`
	ProviderOptions map[string]any   `json:"providerOptions,omitempty"`
}

type policyLayer struct {
	Filesystem *filesystemLayer `json:"filesystem,omitempty"`
	Network    *networkLayer    `json:"network,omitempty"`
}

type filesystemLayer struct {
	Whitelist []string `json:"whitelist,omitempty"`
	Blacklist []string `json:"blacklist,omitempty"`
	Presets   []string `json:"presets,omitempty"`
}

type networkLayer struct {
	AllowNetwork *bool `json:"allowNetwork,omitempty"`
}

// LoadConfigOptions are the inputs to LoadConfig.
type LoadConfigOptions struct {
	// ConfigPath overrides the default $SYNAPSE_HOME/sandbox.json location.
	ConfigPath string
	// UserConfig and RuntimeConfig are additional layers applied after the
	// file layer, in that order. Either may be nil.
	UserConfig    *ConfigLayerInput
	RuntimeConfig *ConfigLayerInput
	Debugf        Debugf
}

// ConfigLayerInput is a caller-supplied partial config layer. It mirrors
// configLayer but is exported for use outside the package.
type ConfigLayerInput struct {
	Enabled         *bool
	Provider        *string
	Filesystem      *FilesystemPolicy
	AllowNetwork    *bool
	ProviderOptions map[string]any
}

func (c *ConfigLayerInput) toLayer() *configLayer {
	if c == nil {
		return nil
	}
	l := &configLayer{
		Enabled:         c.Enabled,
		Provider:        c.Provider,
		ProviderOptions: c.ProviderOptions,
	}
	if c.Filesystem != nil || c.AllowNetwork != nil {
		l.Policy = &policyLayer{}
		if c.Filesystem != nil {
			l.Policy.Filesystem = &filesystemLayer{
				Whitelist: c.Filesystem.Whitelist,
				Blacklist: c.Filesystem.Blacklist,
				Presets:   c.Filesystem.Presets,
			}
		}
		if c.AllowNetwork != nil {
			l.Policy.Network = &networkLayer{AllowNetwork: c.AllowNetwork}
		}
	}
	return l
}

// DefaultConfig returns the built-in defaults layer.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Provider: "local",
		Policy: Policy{
			Filesystem: FilesystemPolicy{
				Whitelist: nil,
				Blacklist: append([]string(nil), DefaultBlacklist()...),
				Presets:   nil,
			},
		},
		ProviderOptions: map[string]any{},
	}
}

// LoadConfig returns a Config built from defaults, an optional file, an
// optional user layer, and an optional runtime layer, in that order. Every
// layer is parsed tolerantly: a structurally invalid layer is logged via
// Debugf and treated as empty, never fatal. The fully merged Config is then
// strictly validated; on failure the defaults are returned with a warning.
// Network is forced false at every step regardless of layer content.
func LoadConfig(opts LoadConfigOptions) Config {
	cfg := DefaultConfig()

	path := opts.ConfigPath
	if path == "" {
		path = defaultConfigPath()
	}

	if layer, ok := readFileLayer(path, opts.Debugf); ok {
		cfg = mergeLayer(cfg, layer)
	}

	if layer := opts.UserConfig.toLayer(); layer != nil {
		cfg = mergeLayer(cfg, *layer)
	}

	if layer := opts.RuntimeConfig.toLayer(); layer != nil {
		cfg = mergeLayer(cfg, *layer)
	}

	cfg.Policy.Filesystem.Blacklist = dedupPreserveOrder(cfg.Policy.Filesystem.Blacklist)
	cfg.Policy.Filesystem.Whitelist = dedupPreserveOrder(cfg.Policy.Filesystem.Whitelist)

	if err := ValidateConfig(cfg); err != nil {
		opts.Debugf.call("sandbox: merged config failed validation, falling back to defaults: %v", err)
		return DefaultConfig()
	}

	return cfg
}

func defaultConfigPath() string {
	home := os.Getenv("SYNAPSE_HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, "sandbox.json")
}

func readFileLayer(path string, debugf Debugf) (configLayer, bool) {
	var layer configLayer
	if path == "" {
		return layer, false
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			debugf.call("sandbox: reading config file %s: %v", path, err)
		}
		return layer, false
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		debugf.call("sandbox: parsing config file %s: %v", path, err)
		return layer, false
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&layer); err != nil {
		debugf.call("sandbox: decoding config file %s: %v", path, err)
		return configLayer{}, false
	}

	return layer, true
}

// mergeLayer applies override semantics: scalar fields overwrite when set,
// whitelist/blacklist append-unique preserving order, providerOptions
// shallow-merge, allowNetwork is always forced false.
func mergeLayer(base Config, override configLayer) Config {
	out := base
	out.Policy.Filesystem.Whitelist = append([]string(nil), base.Policy.Filesystem.Whitelist...)
	out.Policy.Filesystem.Blacklist = append([]string(nil), base.Policy.Filesystem.Blacklist...)

	if override.Enabled != nil {
		out.Enabled = *override.Enabled
	}
	if override.Provider != nil {
		out.Provider = *override.Provider
	}
	if override.Policy != nil {
		if fs := override.Policy.Filesystem; fs != nil {
			out.Policy.Filesystem.Whitelist = appendUnique(out.Policy.Filesystem.Whitelist, fs.Whitelist)
			out.Policy.Filesystem.Blacklist = appendUnique(out.Policy.Filesystem.Blacklist, fs.Blacklist)
			if fs.Presets != nil {
				out.Policy.Filesystem.Presets = fs.Presets
			}
		}
		// Network.AllowNetwork is intentionally never read from override:
		// the type itself cannot express true.
	}
	if override.ProviderOptions != nil {
		merged := make(map[string]any, len(out.ProviderOptions)+len(override.ProviderOptions))
		maps.Copy(merged, out.ProviderOptions)
		maps.Copy(merged, override.ProviderOptions)
		out.ProviderOptions = merged
	}

	return out
}

// ValidateConfig strictly validates a merged Config: non-empty provider,
// sane filesystem shape, and the allowNetwork literal.
func ValidateConfig(cfg Config) error {
	var errs []error

	if cfg.Provider == "" {
		errs = append(errs, fmt.Errorf("provider must be non-empty"))
	}
	if cfg.Policy.Network.AllowNetwork() {
		errs = append(errs, fmt.Errorf("network.allowNetwork must be false"))
	}
	for _, p := range cfg.Policy.Filesystem.Whitelist {
		if p == "" {
			errs = append(errs, fmt.Errorf("filesystem.whitelist contains an empty entry"))
			break
		}
	}
	for _, p := range cfg.Policy.Filesystem.Blacklist {
		if p == "" {
			errs = append(errs, fmt.Errorf("filesystem.blacklist contains an empty entry"))
			break
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return opErrorf(ErrConfigInvalid, "ValidateConfig", "%v", errors.Join(errs...))
}

// AddPermanentWhitelist reads the current file config (or starts from
// empty), appends path to the whitelist if absent, and writes it back as
// pretty-printed JSON, creating parent directories as needed. Unlike
// LoadConfig's tolerant layers, permission errors here propagate to the
// caller.
func AddPermanentWhitelist(path string, configPath string) error {
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	if configPath == "" {
		return opErrorf(ErrConfigInvalid, "AddPermanentWhitelist", "no config path available (SYNAPSE_HOME unset)")
	}

	layer, _ := readFileLayer(configPath, nil)

	fs := filesystemLayer{}
	if layer.Policy != nil && layer.Policy.Filesystem != nil {
		fs = *layer.Policy.Filesystem
	}

	for _, existing := range fs.Whitelist {
		if existing == path {
			return nil
		}
	}
	fs.Whitelist = append(fs.Whitelist, path)

	if layer.Policy == nil {
		layer.Policy = &policyLayer{}
	}
	layer.Policy.Filesystem = &fs

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return opErrorf(ErrConfigInvalid, "AddPermanentWhitelist", "creating config directory: %v", err)
	}

	data, err := json.MarshalIndent(layer, "", "  ")
	if err != nil {
		return opErrorf(ErrConfigInvalid, "AddPermanentWhitelist", "marshaling config: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return opErrorf(ErrConfigInvalid, "AddPermanentWhitelist", "writing config: %v", err)
	}

	return nil
}
