package commands

import (
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/chat"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/taskapi"
	"github.com/taskdeck/taskdeck/internal/tui"
)

// DashCmd launches the interactive dashboard.
var DashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Launch the interactive dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDashboard()
	},
}

// RunDashboard wires the task client, chat channel, bus, and cache together
// and runs the TUI. This is the application root that owns the bus.
func RunDashboard() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	creds := auth.NewFileStore(auth.DefaultCredentialsPath())
	current, err := creds.Credentials()
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return fmt.Errorf("no session found — run `taskdeck login` first")
		}
		return fmt.Errorf("load credentials: %w", err)
	}

	// The cache is a convenience; a broken cache file must not keep the
	// dashboard from starting.
	var cache store.Cache
	if c, err := store.NewSQLite(cfg.CacheDBPath); err != nil {
		slog.Warn("Task cache unavailable, continuing without it", "error", err)
	} else {
		cache = c
		defer func() {
			if closeErr := c.Close(); closeErr != nil {
				slog.Warn("Failed to close task cache", "error", closeErr)
			}
		}()
	}

	changeBus := bus.New()
	tasks := taskapi.New(cfg.BackendURL, creds, taskapi.WithTimeout(cfg.RequestTimeout))
	channel := chat.New(cfg.RelayURL, creds, changeBus)

	model := tui.NewModel(tui.Deps{
		Tasks:  tasks,
		Chat:   channel,
		Cache:  cache,
		Bus:    changeBus,
		UserID: current.UserID,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
