package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/store"
)

// StatusCmd shows session and cache state.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and cache state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context())
	},
}

func runStatus(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	fmt.Printf("Backend: %s\n", cfg.BackendURL)
	fmt.Printf("Relay:   %s\n", cfg.RelayURL)

	creds := auth.NewFileStore(auth.DefaultCredentialsPath())
	session, err := creds.Credentials()
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		fmt.Println("Session: not logged in")
		return nil
	case err != nil:
		return fmt.Errorf("load credentials: %w", err)
	}

	fmt.Printf("Session: logged in as %s\n", session.UserID)
	if info, err := auth.InspectToken(session.Token); err == nil && !info.ExpiresAt.IsZero() {
		if info.Expired() {
			fmt.Println("Token:   expired — run `taskdeck login` again")
		} else {
			fmt.Printf("Token:   valid until %s\n", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
	}

	cache, err := store.NewSQLite(cfg.CacheDBPath)
	if err != nil {
		fmt.Println("Cache:   unavailable")
		return nil
	}
	defer cache.Close()

	tasks, fetchedAt, err := cache.Snapshot(ctx, session.UserID)
	if err != nil || fetchedAt.IsZero() {
		fmt.Println("Cache:   empty")
		return nil
	}
	fmt.Printf("Cache:   %d tasks, fetched %s ago\n", len(tasks), time.Since(fetchedAt).Round(time.Second))
	return nil
}
