// Package internal provides the App struct that wires all components of
// FlowBoard together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/flowboard/internal/cli"
	"github.com/valter-silva-au/flowboard/internal/core"
	"github.com/valter-silva-au/flowboard/internal/observability"
	"github.com/valter-silva-au/flowboard/internal/storage"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

// EventLogFileName is the activity log kept in the data directory.
const EventLogFileName = ".flowboard_events.jsonl"

// App holds all service dependencies for FlowBoard.
type App struct {
	BasePath string
	Config   *models.GlobalConfig
	Logger   *logrus.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	KV     storage.KeyValueStore
	Tasks  storage.TaskRepository
	Themes storage.ThemeStore

	// Core services
	Store core.TaskStore
	Board *core.Board

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator

	logFile *os.File
}

// NewApp creates and wires all components of FlowBoard.
// basePath is the directory holding .flowboard.yaml (see ResolveBasePath).
// Failures in optional parts (log file, event log, storage backend) degrade
// to a working in-memory board instead of aborting.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath, Logger: logrus.New()}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		app.Logger.WithError(err).Warn("loading config failed; using defaults")
		globalCfg = core.DefaultGlobalConfig(basePath)
	}
	if err := app.ConfigMgr.ValidateConfig(globalCfg); err != nil {
		app.Logger.WithError(err).Warn("invalid config; using defaults")
		globalCfg = core.DefaultGlobalConfig(basePath)
	}
	app.Config = globalCfg

	// --- Logging ---
	app.configureLogger(globalCfg)
	log := app.Logger

	// --- Storage layer ---
	app.KV, err = storage.Open(globalCfg.StorageBackend, globalCfg.StorageDir, log)
	if err != nil {
		log.WithError(err).WithField("backend", globalCfg.StorageBackend).
			Warn("opening storage failed; tasks will not be saved")
		app.KV = storage.NewMemoryStore()
	}
	app.Tasks = storage.NewTaskRepository(app.KV, log)
	app.Themes = storage.NewThemeStore(app.KV)

	// --- Observability ---
	if globalCfg.EventsEnabled {
		eventLogPath := filepath.Join(globalCfg.StorageDir, EventLogFileName)
		if globalCfg.StorageBackend == models.BackendMemory {
			eventLogPath = filepath.Join(basePath, EventLogFileName)
		}
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: disable observability if log can't be created.
			log.WithError(err).Debug("event log disabled")
			app.EventLog = nil
		}
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}

	// --- Core services ---
	app.Store = core.NewTaskStore(&taskPersisterAdapter{repo: app.Tasks}, evtAdapter, log)
	app.Board = core.NewBoard(app.Store,
		core.WithEventLogger(evtAdapter),
		core.WithLogger(log),
		core.WithViewOptions(core.ViewOptions{
			Filter: globalCfg.DefaultFilter,
			Sort:   globalCfg.DefaultSort,
		}),
	)

	// --- Wire CLI package-level variables ---
	cli.Board = app.Board
	cli.Themes = app.Themes
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Logger = app.Logger
	cli.TUILogPath = filepath.Join(globalCfg.StorageDir, "flowboard.log")
	if globalCfg.StorageBackend == models.BackendMemory {
		cli.TUILogPath = filepath.Join(basePath, "flowboard.log")
	}

	return app, nil
}

// configureLogger sets level and output from the config. An unopenable log
// file leaves logging on stderr.
func (a *App) configureLogger(cfg *models.GlobalConfig) {
	a.Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		a.Logger.SetLevel(lvl)
	}
	if cfg.LogFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o750); err != nil {
		a.Logger.WithError(err).Warn("creating log directory failed; logging to stderr")
		return
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		a.Logger.WithError(err).Warn("opening log file failed; logging to stderr")
		return
	}
	a.logFile = f
	a.Logger.SetOutput(f)
}

// Close releases resources held by the App.
func (a *App) Close() error {
	var firstErr error
	if a.Board != nil {
		a.Board.Close()
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.KV != nil {
		if err := a.KV.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.logFile != nil {
		a.Logger.SetOutput(os.Stderr)
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the FlowBoard base directory. It checks the
// FLOWBOARD_HOME env var, then walks up from the current directory looking
// for .flowboard.yaml, then falls back to ~/.flowboard.
func ResolveBasePath() string {
	if home := os.Getenv("FLOWBOARD_HOME"); home != "" {
		return home
	}
	if dir, err := os.Getwd(); err == nil {
		for {
			if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".flowboard")
	}
	return "."
}

// --- Adapters ---

// taskPersisterAdapter adapts storage.TaskRepository to
// core.SharedTaskPersister, so every process opening the same data
// directory commits against the latest saved collection.
type taskPersisterAdapter struct {
	repo storage.TaskRepository
}

func (a *taskPersisterAdapter) Load() []models.Task {
	return a.repo.Load()
}

func (a *taskPersisterAdapter) Save(tasks []models.Task) error {
	return a.repo.Save(tasks)
}

func (a *taskPersisterAdapter) Update(fn func([]models.Task) ([]models.Task, bool)) ([]models.Task, error) {
	return a.repo.Update(fn)
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
