package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pocketsync/pocketsync"
	"github.com/pocketsync/pocketsync/internal/config"
)

var (
	userFlag    string
	guestFlag   bool
	offlineFlag bool
	rootCmd     = &cobra.Command{
		Use:   "pocketctl",
		Short: "CLI client for the pocketsync item tracker",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User ID to sign in as")
	rootCmd.PersistentFlags().BoolVarP(&guestFlag, "guest", "g", false, "Run a memory-only guest session")
	rootCmd.PersistentFlags().BoolVar(&offlineFlag, "offline", false, "Force offline mode, skipping the connectivity probe")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newTracker builds a Tracker from the environment and applies the
// session flags. Guest sessions are memory-only, so --guest with no
// prior state always starts empty.
func newTracker() (*pocketsync.Tracker, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if offlineFlag {
		cfg.BaseURL = ""
	}

	tr, err := pocketsync.New(cfg)
	if err != nil {
		return nil, err
	}

	// One-shot commands need the initial probe result before routing
	// reads and writes; give it a moment to land.
	if !offlineFlag {
		deadline := time.Now().Add(2 * time.Second)
		for !tr.Online() && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}
	}

	switch {
	case guestFlag:
		tr.ContinueAsGuest()
	case userFlag != "":
		tr.SignIn(userFlag)
	}
	return tr, nil
}
