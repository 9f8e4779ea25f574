// taskdeck - task manager with an embedded assistant.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/commands"
)

// Version is set at build time via -ldflags "-X main.Version=X.Y.Z"
var Version = "0.0.0-dev"

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "taskdeck - manage your tasks directly or through the assistant",
	Long: `taskdeck is a task manager with an embedded conversational assistant.

Commands:
  login      Authenticate against the backend
  logout     Discard the stored session
  status     Show session and cache state
  dash       Launch the interactive dashboard
  relay      Run the chat relay server

The dashboard talks to the task API directly and to the assistant through
the relay; after every assistant turn the task list refreshes itself.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunDashboard()
	},
}

func init() {
	rootCmd.AddCommand(commands.LoginCmd)
	rootCmd.AddCommand(commands.LogoutCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.DashCmd)
	rootCmd.AddCommand(commands.RelayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
