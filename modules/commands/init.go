package commands

import (
	"io"
	"os"

	"econdash/modules/platform/config"
	"econdash/modules/platform/control"
	"econdash/modules/platform/logger"
)

// AppContext holds application-wide context
type AppContext struct {
	Config     *config.Config
	ConfigPath string
	API        *control.Client
	Logger     *logger.Logger
}

var globalContext *AppContext

// InitContext initializes the application context
func InitContext() error {
	cfg := config.GetGlobal()
	configPath := config.GetGlobalPath()

	log := buildLogger(cfg.Logger)
	logger.SetGlobalLogger(log)

	globalContext = &AppContext{
		Config:     cfg,
		ConfigPath: configPath,
		API:        control.NewClient(cfg.Server),
		Logger:     log,
	}

	return nil
}

// GetContext returns the global application context
func GetContext() *AppContext {
	return globalContext
}

// buildLogger creates the logger from configuration. With a file path the
// log goes to the file only; a full-screen UI owns stderr.
func buildLogger(cfg *config.LoggerConfig) *logger.Logger {
	if cfg == nil {
		cfg = config.DefaultLoggerConfig()
	}

	level := logger.ParseLevel(cfg.Level)
	outputs := []io.Writer{os.Stderr}

	if cfg.FilePath != "" {
		if f, err := logger.CreateLogFile(cfg.FilePath, cfg.MaxSizeMB); err == nil {
			outputs = []io.Writer{f}
		}
	}

	return logger.NewLogger(level, outputs, "econdash")
}

// registerDashboardCommands registers the two dashboard entry points
func registerDashboardCommands() {
	RegisterCommand(&Command{
		Name:        "dash",
		Aliases:     []string{"d"},
		Category:    "Dashboards",
		Description: "Open the metrics dashboard",
		Usage:       "econdash dash",
		Examples: []string{
			"econdash dash",
		},
		Handler: dashCommand,
		Order:   10,
	})

	RegisterCommand(&Command{
		Name:        "world",
		Aliases:     []string{"w"},
		Category:    "Dashboards",
		Description: "Open the spatial world view",
		Usage:       "econdash world",
		Examples: []string{
			"econdash world",
		},
		Handler: worldCommand,
		Order:   11,
	})
}

// registerControlCommands registers one-shot simulation control commands
func registerControlCommands() {
	RegisterCommand(&Command{
		Name:        "control",
		Aliases:     []string{"ctl"},
		Category:    "Simulation Control",
		Description: "Send a control command to the simulation",
		Usage:       "econdash control <sub-command> [arguments]",
		Examples: []string{
			"econdash control play",
			"econdash control speed 4",
			"econdash control jump 5000",
		},
		Handler: controlCommand,
		SubCommands: []SubCommand{
			{Name: "play", Description: "Start or resume the simulation", Handler: controlPlay},
			{Name: "pause", Description: "Pause the simulation", Handler: controlPause},
			{Name: "step", Description: "Advance by N steps (default 1)", Handler: controlStep},
			{Name: "speed", Description: "Set the speed multiplier", Handler: controlSpeed},
			{Name: "jump", Description: "Jump forward to a logical time", Handler: controlJump},
			{Name: "rewind", Description: "Rewind to an earlier logical time", Handler: controlRewind},
			{Name: "reset", Description: "Reset the simulation", Handler: controlReset},
		},
		Order: 20,
	})

	RegisterCommand(&Command{
		Name:        "status",
		Aliases:     []string{"st"},
		Category:    "Simulation Control",
		Description: "Show the current simulation status",
		Usage:       "econdash status [--json]",
		Examples: []string{
			"econdash status",
			"econdash st --json",
		},
		Handler: statusCommand,
		Order:   21,
	})
}

// registerDataCommands registers pull-path data commands
func registerDataCommands() {
	RegisterCommand(&Command{
		Name:        "metrics",
		Category:    "Server Data",
		Description: "Print the current metric sample",
		Usage:       "econdash metrics [--history <n>]",
		Examples: []string{
			"econdash metrics",
			"econdash metrics --history 20",
		},
		Handler: metricsCommand,
		Order:   30,
	})

	RegisterCommand(&Command{
		Name:        "scenarios",
		Category:    "Server Data",
		Description: "List or load scenarios",
		Usage:       "econdash scenarios [load <name>]",
		Examples: []string{
			"econdash scenarios",
			"econdash scenarios load baseline",
		},
		Handler: scenariosCommand,
		SubCommands: []SubCommand{
			{Name: "load", Description: "Load a named scenario", Handler: scenariosLoad},
		},
		Order: 31,
	})

	RegisterCommand(&Command{
		Name:        "snapshots",
		Category:    "Server Data",
		Description: "List or create snapshots",
		Usage:       "econdash snapshots [create]",
		Examples: []string{
			"econdash snapshots",
			"econdash snapshots create",
		},
		Handler: snapshotsCommand,
		SubCommands: []SubCommand{
			{Name: "create", Description: "Capture a snapshot now", Handler: snapshotsCreate},
		},
		Order: 32,
	})
}

// registerConfigCommands registers configuration commands
func registerConfigCommands() {
	RegisterCommand(&Command{
		Name:        "config",
		Category:    "Configuration",
		Description: "Show or initialize the configuration file",
		Usage:       "econdash config [init]",
		Examples: []string{
			"econdash config",
			"econdash config init",
		},
		Handler: configCommand,
		SubCommands: []SubCommand{
			{Name: "init", Description: "Write a default config file", Handler: configInit},
		},
		Order: 40,
	})
}
