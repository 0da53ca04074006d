package cli

// This file resolves run options from flags, RELAYPUSH_* environment
// variables and an optional YAML config file, in that order of precedence.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configKeySSHOpts       = "ssh_opts"
	configKeyNoCache       = "no_cache"
	configKeyCacheVolume   = "cache_volume"
	configKeyRegistryImage = "registry_image"

	envPrefix = "RELAYPUSH"

	// DefaultCacheVolume holds registry layers across runs.
	DefaultCacheVolume = "relaypush-cache"
	// DefaultRegistryImage is the distribution registry served on loopback.
	DefaultRegistryImage = "registry:2"
)

// Options is the resolved configuration for one run.
type Options struct {
	SSHOpts       string
	NoCache       bool
	CacheVolume   string
	RegistryImage string
}

// newConfig returns a viper instance with defaults and environment binding.
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault(configKeySSHOpts, "")
	v.SetDefault(configKeyNoCache, false)
	v.SetDefault(configKeyCacheVolume, DefaultCacheVolume)
	v.SetDefault(configKeyRegistryImage, DefaultRegistryImage)
	return v
}

// bindFlags makes explicitly set flags override env and file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlag(configKeySSHOpts, flags.Lookup("ssh-opts")); err != nil {
		return err
	}
	return v.BindPFlag(configKeyNoCache, flags.Lookup("no-cache"))
}

// readConfigFile loads path, or the default location when path is empty.
// Only a missing default file is tolerated.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return nil
	}
	return wrapWithSentinelAndContext(
		ErrReadConfigFailed,
		err,
		fmt.Sprintf("failed to read config: %v", err),
		map[string]any{"path": path, "component": "config"},
	)
}

func resolveOptions(v *viper.Viper) Options {
	return Options{
		SSHOpts:       v.GetString(configKeySSHOpts),
		NoCache:       v.GetBool(configKeyNoCache),
		CacheVolume:   v.GetString(configKeyCacheVolume),
		RegistryImage: v.GetString(configKeyRegistryImage),
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "relaypush")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "relaypush")
	}
	return ".relaypush"
}
