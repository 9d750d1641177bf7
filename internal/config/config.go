// Package config loads plannah settings from defaults, an optional config
// file, PLANNAH_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "plannah"
	envPrefix  = "PLANNAH"

	// DefaultDataDir is the workspace directory used when none is configured.
	DefaultDataDir = ".plannah"
)

// Config is the resolved application configuration.
type Config struct {
	DataDir string        `mapstructure:"dataDir" validate:"required"`
	Verbose bool          `mapstructure:"verbose"`
	Storage StorageConfig `mapstructure:"storage"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=file sqlite"`
	SQLitePath string `mapstructure:"sqlitePath"`
}

// EditorConfig tunes the detail form's save timing.
type EditorConfig struct {
	AutosaveInterval    time.Duration `mapstructure:"autosaveInterval" validate:"gt=0"`
	AttachmentSaveDelay time.Duration `mapstructure:"attachmentSaveDelay" validate:"gte=0"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" validate:"required"`
}

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"dataDir": "data-dir",
	"verbose": "verbose",
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataDir", DefaultDataDir)
	v.SetDefault("verbose", false)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.sqlitePath", "plannah.db")
	v.SetDefault("editor.autosaveInterval", "5s")
	v.SetDefault("editor.attachmentSaveDelay", "300ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "plannah.log")
}

// Load resolves the configuration. configFile, when set, must exist;
// otherwise plannah.yaml is looked up in the data directory and then in
// $HOME/.plannah. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("dataDir"))
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".plannah"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if cfg.Verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Storage.SQLitePath = cfg.resolve(cfg.Storage.SQLitePath)
	cfg.Log.File = cfg.resolve(cfg.Log.File)
	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// resolve makes p relative to the data directory unless it is absolute.
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
