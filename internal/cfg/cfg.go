// Package cfg loads service settings from an optional YAML file and the
// environment. Environment variables always override file values.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cardiorisk/internal/common"
)

type Settings struct {
	ModelsDir      string
	ModelVersion   string
	TopDrivers     int
	WarmOnStart    bool
	DataPath       string
	HistoryLimit   int
	HTTPPort       int
	RequestTimeout time.Duration
	LogLevel       string
	LogPretty      bool
}

type ConfigFile struct {
	Models struct {
		Dir         string `yaml:"dir"`
		Version     string `yaml:"version"`
		TopDrivers  int    `yaml:"topDrivers"`
		WarmOnStart *bool  `yaml:"warmOnStart"`
	} `yaml:"models"`

	Storage struct {
		DataPath     string `yaml:"dataPath"`
		HistoryLimit int    `yaml:"historyLimit"`
	} `yaml:"storage"`

	Server struct {
		Port           int    `yaml:"port"`
		RequestTimeout string `yaml:"requestTimeout"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// ModelDir is the versioned artifact directory.
func (s Settings) ModelDir() string {
	return filepath.Join(s.ModelsDir, s.ModelVersion)
}

// PersistenceEnabled reports whether predictions are stored.
func (s Settings) PersistenceEnabled() bool {
	return s.DataPath != ""
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout = common.DefaultRequestTimeout
	}
	warm := true
	if config.Models.WarmOnStart != nil {
		warm = *config.Models.WarmOnStart
	}

	settings := Settings{
		ModelsDir:      getEnvOrDefault(common.EnvModelsDir, orDefault(config.Models.Dir, common.DefaultModelsDir)),
		ModelVersion:   getEnvOrDefault(common.EnvModelVersion, orDefault(config.Models.Version, common.DefaultModelVersion)),
		TopDrivers:     getIntFromEnvOrConfig(common.EnvTopDrivers, config.Models.TopDrivers, common.DefaultTopDrivers),
		WarmOnStart:    getBoolOrDefault(common.EnvWarmOnStart, warm),
		DataPath:       getEnvOrDefault(common.EnvDataPath, config.Storage.DataPath),
		HistoryLimit:   getIntFromEnvOrConfig(common.EnvHistoryLimit, config.Storage.HistoryLimit, common.DefaultHistoryLimit),
		HTTPPort:       getIntFromEnvOrConfig(common.EnvHTTPPort, config.Server.Port, common.DefaultHTTPPort),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogPretty:      getBoolOrDefault(common.EnvLogPretty, config.Logging.Pretty),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelsDir:      getEnvOrDefault(common.EnvModelsDir, common.DefaultModelsDir),
		ModelVersion:   getEnvOrDefault(common.EnvModelVersion, common.DefaultModelVersion),
		TopDrivers:     getIntOrDefault(common.EnvTopDrivers, common.DefaultTopDrivers),
		WarmOnStart:    getBoolOrDefault(common.EnvWarmOnStart, true),
		DataPath:       os.Getenv(common.EnvDataPath), // optional
		HistoryLimit:   getIntOrDefault(common.EnvHistoryLimit, common.DefaultHistoryLimit),
		HTTPPort:       getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, common.DefaultRequestTimeout),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogPretty:      getBoolOrDefault(common.EnvLogPretty, false),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if strings.TrimSpace(settings.ModelsDir) == "" {
		return errors.New(common.ErrMsgModelsDirRequired)
	}
	if strings.TrimSpace(settings.ModelVersion) == "" {
		return errors.New(common.ErrMsgModelVersionRequired)
	}
	if strings.ContainsAny(settings.ModelVersion, `/\`) || settings.ModelVersion == ".." {
		return fmt.Errorf("model version must be a single directory name, got %q", settings.ModelVersion)
	}

	if settings.TopDrivers < common.MinTopDrivers || settings.TopDrivers > common.MaxTopDrivers {
		return fmt.Errorf("top drivers must be between %d and %d, got %d", common.MinTopDrivers, common.MaxTopDrivers, settings.TopDrivers)
	}
	if settings.HistoryLimit < common.MinHistoryLimit || settings.HistoryLimit > common.MaxHistoryLimit {
		return fmt.Errorf("history limit must be between %d and %d, got %d", common.MinHistoryLimit, common.MaxHistoryLimit, settings.HistoryLimit)
	}
	if settings.HTTPPort < common.MinHTTPPort || settings.HTTPPort > common.MaxHTTPPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d", common.MinHTTPPort, common.MaxHTTPPort, settings.HTTPPort)
	}
	if settings.RequestTimeout < common.MinRequestTimeout || settings.RequestTimeout > common.MaxRequestTimeout {
		return fmt.Errorf("request timeout must be between %v and %v, got %v", common.MinRequestTimeout, common.MaxRequestTimeout, settings.RequestTimeout)
	}

	settings.LogLevel = strings.ToLower(settings.LogLevel)
	for _, l := range logLevels {
		if settings.LogLevel == l {
			return nil
		}
	}
	return fmt.Errorf("unknown log level %q", settings.LogLevel)
}
