package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	LogJSON       bool          `mapstructure:"log_json"`
	NoColor       bool          `mapstructure:"no_color"`
	EnginePath    string        `mapstructure:"engine_path"` // overrides the restic binary search
	DataDir       string        `mapstructure:"data_dir"`
	Notifications Notifications `mapstructure:"notifications"`
	Backups       []BackupTask  `mapstructure:"backups"`
}

type Notifications struct {
	Slack    SlackConfig     `mapstructure:"slack"`
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
}

type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Template   string `mapstructure:"template"`
}

type WebhookConfig struct {
	URL      string            `mapstructure:"url"`
	Method   string            `mapstructure:"method"`
	Template string            `mapstructure:"template"`
	Headers  map[string]string `mapstructure:"headers"`
}

// BackupTask is a scheduled backup declared in the config file.
type BackupTask struct {
	ID          string   `mapstructure:"id"`
	Repository  string   `mapstructure:"repository"` // profile ID or display name
	SourcePaths []string `mapstructure:"source_paths"`
	Excludes    []string `mapstructure:"excludes"`
	Tags        []string `mapstructure:"tags"`
	Schedule    string   `mapstructure:"schedule"` // cron expression or @descriptor
}

var globalConfig *Config

func Initialize(configPath string) error {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".resticpilot"))
		}
	}

	v.SetEnvPrefix("RESTICPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_json", false)
	v.SetDefault("no_color", false)

	// Unmarshal only sees env-backed keys that are bound explicitly.
	v.BindEnv("data_dir")
	v.BindEnv("engine_path")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		_ = v.Unmarshal(&globalConfig)
	})

	return nil
}

func GetConfig() *Config {
	if globalConfig == nil {
		return &Config{}
	}
	return globalConfig
}

// ResolveDataDir returns the directory holding profiles, schedules and the key file.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".resticpilot"), nil
}
