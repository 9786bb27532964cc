package models

// Storage backends selectable in .flowboard.yaml.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// GlobalConfig holds settings read from .flowboard.yaml via Viper.
type GlobalConfig struct {
	StorageBackend string         `yaml:"storage_backend" mapstructure:"storage_backend"`
	StorageDir     string         `yaml:"storage_dir" mapstructure:"storage_dir"`
	DefaultSort    SortOption     `yaml:"default_sort" mapstructure:"default_sort"`
	DefaultFilter  PriorityFilter `yaml:"default_filter" mapstructure:"default_filter"`
	LogLevel       string         `yaml:"log_level" mapstructure:"log_level"`
	LogFile        string         `yaml:"log_file,omitempty" mapstructure:"log_file"`
	EventsEnabled  bool           `yaml:"events_enabled" mapstructure:"events_enabled"`
}
