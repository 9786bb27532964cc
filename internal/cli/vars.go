package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/flowboard/internal/core"
	"github.com/valter-silva-au/flowboard/internal/observability"
	"github.com/valter-silva-au/flowboard/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	Board  *core.Board
	Themes storage.ThemeStore
	Logger *logrus.Logger

	// TUILogPath receives log output while the terminal board owns the screen.
	TUILogPath string
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)
