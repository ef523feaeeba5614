package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scferro/px4-agent/internal/config"
	"github.com/scferro/px4-agent/internal/logging"
	"github.com/scferro/px4-agent/internal/manager"
	"github.com/scferro/px4-agent/internal/validator"
)

func main() {
	configDir := flag.String("config", "", "directory containing "+config.ConfigName)
	mode := flag.String("mode", "", "validation mode: mission or command (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	settings := config.DefaultAgent()
	level := "info"
	logsDir := "./px4agent-logs"
	configMode := "mission"

	if *configDir != "" {
		if err := config.Load(*configDir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		settings = config.AgentSettings()
		level = config.GetString("logLevel")
		logsDir = config.GetString("logsDir")
		configMode = config.GetString("mode")
	}
	if *logLevel != "" {
		level = *logLevel
	}
	if *mode != "" {
		configMode = *mode
	}

	logFile, err := openLogFile(logsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	logManager := logging.NewManager()

	// The context provider is bound after the manager exists.
	var mgr *manager.Manager
	logManager.Setup(logFile, level, func() []slog.Attr {
		if mgr == nil {
			return nil
		}
		return mgr.LogAttrs()
	})
	logger := logManager.Logger()

	mgr, err = manager.New(logger, settings, validator.ParseMode(configMode))
	if err != nil {
		logger.Error("Manager initialization failed", "error", err)
		os.Exit(1)
	}

	if err := runREPL(mgr, os.Stdin, os.Stdout); err != nil {
		logger.Error("Planner loop terminated", "error", err)
		os.Exit(1)
	}
}

func openLogFile(logsDir string) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}
	path := filepath.Join(logsDir, "px4agent.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
