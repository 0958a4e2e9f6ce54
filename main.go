// main.go - Entry point for the doctor dashboard. The root command runs the
// TUI; `logout` clears stored credentials; `version` prints the build
// version.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"teledesk/src/app"
	"teledesk/src/config"
	"teledesk/src/services/storage"
	"teledesk/src/session"
)

const version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:          "teledesk",
		Short:        "Terminal dashboard for telehealth doctors",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the stored sign-in tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := storage.NewCredentialsRepository(cfg.DataDir).Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("teledesk " + version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logger, closeLog, err := openLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting teledesk", "version", version)

	sess := restoreSession(cfg, logger)
	program := tea.NewProgram(app.New(cfg, logger, sess), tea.WithAltScreen())

	setupGracefulShutdown(program, logger)

	if _, err := program.Run(); err != nil {
		logger.Error("application failed", "error", err)
		return err
	}
	logger.Info("application exited")
	return nil
}

// restoreSession rebuilds the session context from stored credentials.
// Missing or stale credentials mean the login screen.
func restoreSession(cfg *config.Config, logger *slog.Logger) *session.Context {
	creds, err := storage.NewCredentialsRepository(cfg.DataDir).Load()
	if err != nil {
		logger.Warn("reading stored credentials", "error", err)
		return nil
	}
	if creds == nil {
		return nil
	}
	sess, err := session.New(creds.Access, creds.Refresh, creds.CSRF)
	if err != nil {
		logger.Warn("stored credentials unusable, signing in again", "error", err)
		return nil
	}
	return sess
}

func openLogger(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logger, func() { f.Close() }, nil
}

// setupGracefulShutdown quits the program on SIGINT/SIGTERM so the app model
// can tear the chat connection down.
func setupGracefulShutdown(program *tea.Program, logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("received shutdown signal")
		program.Quit()
	}()
}
