// Package core contains the business logic for FlowBoard: the task store,
// the board view projection, drag reconciliation, the task form boundary and
// configuration loading.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// ConfigFileName is the config file looked up in the base directory,
// without its extension.
const ConfigFileName = ".flowboard"

// ConfigurationManager loads and validates .flowboard.yaml.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .flowboard.yaml resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults for the
// given base directory.
func DefaultGlobalConfig(basePath string) *models.GlobalConfig {
	return &models.GlobalConfig{
		StorageBackend: models.BackendFile,
		StorageDir:     filepath.Join(basePath, "data"),
		DefaultSort:    models.SortManual,
		DefaultFilter:  models.FilterAll,
		LogLevel:       "info",
		EventsEnabled:  true,
	}
}

// LoadGlobalConfig reads .flowboard.yaml from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("storage.backend", cfg.StorageBackend)
	v.SetDefault("storage.dir", "")
	v.SetDefault("board.sort", string(cfg.DefaultSort))
	v.SetDefault("board.filter", string(cfg.DefaultFilter))
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("events.enabled", cfg.EventsEnabled)

	v.SetEnvPrefix("FLOWBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.StorageBackend = strings.ToLower(v.GetString("storage.backend"))
	if dir := v.GetString("storage.dir"); dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cm.basePath, dir)
		}
		cfg.StorageDir = dir
	}
	cfg.DefaultSort = models.SortOption(v.GetString("board.sort"))
	cfg.DefaultFilter = models.PriorityFilter(v.GetString("board.filter"))
	cfg.LogLevel = v.GetString("log.level")
	cfg.LogFile = v.GetString("log.file")
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(cm.basePath, cfg.LogFile)
	}
	cfg.EventsEnabled = v.GetBool("events.enabled")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// single error listing every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	switch cfg.StorageBackend {
	case models.BackendFile, models.BackendBadger, models.BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, badger, memory",
			cfg.StorageBackend,
		))
	}

	if cfg.StorageBackend != models.BackendMemory && cfg.StorageDir == "" {
		errs = append(errs, "storage.dir must not be empty")
	}

	if !cfg.DefaultSort.Valid() {
		errs = append(errs, fmt.Sprintf(
			"board.sort %q is invalid, must be one of: order, createdAt, priority",
			cfg.DefaultSort,
		))
	}

	if !cfg.DefaultFilter.Valid() {
		errs = append(errs, fmt.Sprintf(
			"board.filter %q is invalid, must be one of: all, low, medium, high",
			cfg.DefaultFilter,
		))
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid", cfg.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
