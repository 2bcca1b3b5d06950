package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "CLIPD"

	defaultBaseDirName    = ".clipd"
	defaultDatabaseName   = "clipd.db"
	defaultImagesDirName  = "images"
	defaultPIDFileName    = "clipd.pid"
	defaultLogFileName    = "clipd.log"
	defaultLogLevel       = "info"
	defaultPollIntervalMS = 500
	defaultMaxItemBytes   = 10 << 20
	defaultRetentionDays  = 30
)

// AppConfig captures runtime configuration for the CLI and the watcher.
// Path fields are resolved by the time Load returns.
type AppConfig struct {
	BaseDir       string
	DatabasePath  string
	ImagesDir     string
	PIDFile       string
	LogFile       string
	LogLevel      string
	PollInterval  time.Duration
	MaxItemBytes  int64
	RetentionDays int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper
// instance. Path keys default to empty and resolve against the base
// directory at load time, so overriding base.dir moves everything at once.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("base.dir", "")
	configViper.SetDefault("database.path", "")
	configViper.SetDefault("images.dir", "")
	configViper.SetDefault("pid.file", "")
	configViper.SetDefault("log.file", "")
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("capture.interval_ms", defaultPollIntervalMS)
	configViper.SetDefault("capture.max_item_bytes", defaultMaxItemBytes)
	configViper.SetDefault("retention.days", defaultRetentionDays)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	baseDir := strings.TrimSpace(configViper.GetString("base.dir"))
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return AppConfig{}, fmt.Errorf("determine home directory: %w", err)
		}
		baseDir = filepath.Join(home, defaultBaseDirName)
	}

	cfg := AppConfig{
		BaseDir:       baseDir,
		DatabasePath:  pathOrDefault(configViper.GetString("database.path"), baseDir, defaultDatabaseName),
		ImagesDir:     pathOrDefault(configViper.GetString("images.dir"), baseDir, defaultImagesDirName),
		PIDFile:       pathOrDefault(configViper.GetString("pid.file"), baseDir, defaultPIDFileName),
		LogFile:       pathOrDefault(configViper.GetString("log.file"), baseDir, defaultLogFileName),
		LogLevel:      configViper.GetString("log.level"),
		PollInterval:  time.Duration(configViper.GetInt("capture.interval_ms")) * time.Millisecond,
		MaxItemBytes:  configViper.GetInt64("capture.max_item_bytes"),
		RetentionDays: configViper.GetInt("retention.days"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func pathOrDefault(value, baseDir, name string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return filepath.Join(baseDir, name)
}

func (c AppConfig) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("capture.interval_ms must be positive")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention.days must be positive")
	}
	return nil
}
