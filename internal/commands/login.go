package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/store"
)

var registerFlag bool

// LoginCmd authenticates against the backend and stores the session.
var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend",
	Long: `Authenticate with your email and password.

The session token and user ID are stored under ~/.taskdeck/ and attached to
every request the dashboard and relay make on your behalf.`,
	RunE: runLogin,
}

// LogoutCmd discards the stored session.
var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := auth.NewFileStore(auth.DefaultCredentialsPath())
		clearCachedTasks(cmd.Context(), creds)
		if err := creds.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

// clearCachedTasks drops the departing user's snapshot. Best effort: a
// broken cache never blocks logout.
func clearCachedTasks(ctx context.Context, creds *auth.FileStore) {
	session, err := creds.Credentials()
	if err != nil {
		return
	}
	cfg, err := config.Load()
	if err != nil {
		return
	}
	cache, err := store.NewSQLite(cfg.CacheDBPath)
	if err != nil {
		return
	}
	defer cache.Close()
	_ = cache.Clear(ctx, session.UserID)
}

func init() {
	LoginCmd.Flags().BoolVar(&registerFlag, "register", false, "Create a new account instead of logging in")
}

func runLogin(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	fmt.Print("Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	ctx := cmd.Context()

	authFn := auth.Login
	if registerFlag {
		authFn = auth.Register
	}

	session, err := authFn(ctx, cfg.BackendURL, email, password)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	store := auth.NewFileStore(auth.DefaultCredentialsPath())
	if err := store.Save(session); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	fmt.Printf("Logged in as %s.\n", session.UserID)
	if info, err := auth.InspectToken(session.Token); err == nil && !info.ExpiresAt.IsZero() {
		fmt.Printf("Session valid until %s.\n", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
