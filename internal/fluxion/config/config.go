// Package config implements Fluxion's three-layer JSON configuration
// overlay: a global file at ~/.fluxion/config.json, a local ./fluxion.json
// that overlays it, and FLUXION_<KEY> environment variables that overlay
// both.
//
// Layering is built on github.com/spf13/viper, whose SetEnvPrefix/
// AutomaticEnv/MergeInConfig give exactly the global-then-local-then-env
// precedence this package documents.
package config

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
)

const (
	GlobalDirName  = ".fluxion"
	GlobalFileName = "config.json"
	LocalFileName  = "fluxion.json"
	EnvPrefix      = "FLUXION"
)

// Config is Fluxion's recognized configuration key set.
type Config struct {
	MaxConnections        int    `mapstructure:"max_connections" json:"max_connections,omitempty"`
	DefaultTimeout        float64 `mapstructure:"default_timeout" json:"default_timeout,omitempty"`
	VerifyTLS             bool   `mapstructure:"verify_tls" json:"verify_tls"`
	Proxy                 string `mapstructure:"proxy" json:"proxy,omitempty"`
	UserAgent             string `mapstructure:"user_agent" json:"user_agent,omitempty"`
	EnableHTTP3           bool   `mapstructure:"enable_http3" json:"enable_http3,omitempty"`
	Theme                 string `mapstructure:"theme" json:"theme,omitempty"`
	DefaultBrowserProfile string `mapstructure:"default_browser_profile" json:"default_browser_profile,omitempty"`
	DefaultOutputDir      string `mapstructure:"default_output_dir" json:"default_output_dir,omitempty"`
	PluginDirs            []string `mapstructure:"plugin_dirs" json:"plugin_dirs,omitempty"`
	RetryPreservesPartial bool   `mapstructure:"retry_preserves_partial" json:"retry_preserves_partial"`
}

// Default returns Fluxion's documented defaults. RetryPreservesPartial
// defaults false: a retried single-stream fetch restarts from zero unless
// explicitly opted into resuming partial writes.
func Default() Config {
	return Config{
		MaxConnections:        8,
		DefaultTimeout:        30.0,
		VerifyTLS:             true,
		UserAgent:             "fluxion/1.0",
		EnableHTTP3:           false,
		Theme:                 "default",
		DefaultBrowserProfile: "",
		DefaultOutputDir:      ".",
		RetryPreservesPartial: false,
	}
}

// GlobalPath returns ~/.fluxion/config.json.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fluxerr.New(fluxerr.Config, "cannot resolve home directory").WithCause(err)
	}
	return filepath.Join(home, GlobalDirName, GlobalFileName), nil
}

// Load composes the three-layer overlay: global file, then local
// ./fluxion.json, then FLUXION_<KEY> environment variables. Missing files
// at any layer are not an error; a malformed file is.
func Load() (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("json")
	bindDefaults(v, cfg)

	if globalPath, err := GlobalPath(); err == nil {
		if data, readErr := os.ReadFile(globalPath); readErr == nil {
			if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
				return cfg, fluxerr.Newf(fluxerr.Config, "malformed global config %s", globalPath).WithCause(err)
			}
		}
	}

	if data, err := os.ReadFile(LocalFileName); err == nil {
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return cfg, fluxerr.Newf(fluxerr.Config, "malformed local config %s", LocalFileName).WithCause(err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range []string{
		"max_connections", "default_timeout", "verify_tls", "proxy",
		"user_agent", "enable_http3", "theme", "default_browser_profile",
		"default_output_dir", "plugin_dirs", "retry_preserves_partial",
	} {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key))
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fluxerr.New(fluxerr.Config, "cannot decode merged configuration").WithCause(err)
	}
	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("max_connections", cfg.MaxConnections)
	v.SetDefault("default_timeout", cfg.DefaultTimeout)
	v.SetDefault("verify_tls", cfg.VerifyTLS)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("enable_http3", cfg.EnableHTTP3)
	v.SetDefault("theme", cfg.Theme)
	v.SetDefault("default_output_dir", cfg.DefaultOutputDir)
	v.SetDefault("retry_preserves_partial", cfg.RetryPreservesPartial)
}

// Save writes cfg as the global config document, creating the parent
// directory as needed.
func Save(cfg Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fluxerr.New(fluxerr.Config, "cannot create config directory").WithCause(err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fluxerr.New(fluxerr.Config, "cannot serialize configuration").WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fluxerr.Newf(fluxerr.Config, "cannot write %s", path).WithCause(err)
	}
	return nil
}

// ProxyConfig is the resolved proxy selection for one fetch.
type ProxyConfig struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ResolveProxy picks the effective proxy: an explicit per-request value
// wins, then the config's proxy key, then the environment in the
// precedence HTTPS_PROXY > https_proxy > HTTP_PROXY > http_proxy >
// ALL_PROXY > all_proxy (adapted from vget's loadEnvProxy).
func ResolveProxy(requestProxy, configProxy string) string {
	if requestProxy != "" {
		return requestProxy
	}
	if configProxy != "" {
		return configProxy
	}

	envKeys := []string{
		"HTTPS_PROXY", "https_proxy",
		"HTTP_PROXY", "http_proxy",
		"ALL_PROXY", "all_proxy",
	}
	for _, key := range envKeys {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		u, err := url.Parse(value)
		if err != nil || u.Host == "" {
			u, err = url.Parse("http://" + value)
			if err != nil || u.Host == "" {
				continue
			}
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "socks5":
			return value
		default:
			continue
		}
	}
	return ""
}

// NoProxyHosts returns the comma-separated NO_PROXY/no_proxy hosts, upper
// case checked first.
func NoProxyHosts() string {
	if v := os.Getenv("NO_PROXY"); v != "" {
		return v
	}
	return os.Getenv("no_proxy")
}
