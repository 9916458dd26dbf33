package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jlogtools/jlog/internal/model"
)

const (
	defaultServeAddr      = "127.0.0.1:8844"
	defaultUpdateInterval = time.Second
	defaultSSHPort        = 22
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	MaxPriority    int           `mapstructure:"max-priority"`
	TopN           int           `mapstructure:"top-n"`
	ServeAddr      string        `mapstructure:"serve-addr"`
	UpdateInterval time.Duration `mapstructure:"update-interval"`
	ExportFormat   string        `mapstructure:"export-format"`
	SSHPort        int           `mapstructure:"ssh-port"`
	SSHUser        string        `mapstructure:"ssh-user"`
	SSHKeyFile     string        `mapstructure:"ssh-key-file"`
	SSHCommand     string        `mapstructure:"ssh-command"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("JLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("max-priority", model.DefaultMaxPriority)
	v.SetDefault("top-n", model.DefaultTopN)
	v.SetDefault("serve-addr", defaultServeAddr)
	v.SetDefault("update-interval", defaultUpdateInterval)
	v.SetDefault("export-format", "json")
	v.SetDefault("ssh-port", defaultSSHPort)
	v.SetDefault("ssh-user", "")
	v.SetDefault("ssh-key-file", "")
	v.SetDefault("ssh-command", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "jlog", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.MaxPriority < 0 || cfg.MaxPriority > 7 {
		return cfg, fmt.Errorf("invalid max-priority: %d", cfg.MaxPriority)
	}
	if cfg.TopN <= 0 {
		return cfg, fmt.Errorf("invalid top-n: %d", cfg.TopN)
	}
	if cfg.SSHPort <= 0 || cfg.SSHPort > 65535 {
		return cfg, fmt.Errorf("invalid ssh-port: %d", cfg.SSHPort)
	}
	return cfg, nil
}
