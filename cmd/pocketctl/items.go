package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pocketsync/pocketsync"
)

func init() {
	addCmd := &cobra.Command{
		Use:   "add NAME [LOCATION]",
		Short: "Record where an item was put down",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := newTracker()
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			location := ""
			if len(args) == 2 {
				location = args[1]
			}
			item, err := tr.AddItem(cmd.Context(), args[0], location)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "added %s (%s)\n", item.Name, item.ID)
			return nil
		},
	}
	rootCmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := newTracker()
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			if err := tr.Load(cmd.Context()); err != nil {
				return err
			}
			printItems(tr.Items())
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := pocketsync.ParseItemID(args[0])
			if err != nil {
				return err
			}
			tr, err := newTracker()
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			if err := tr.DeleteItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "deleted %s\n", id)
			return nil
		},
	}
	rootCmd.AddCommand(deleteCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push locally-held records to the service now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := newTracker()
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			if !tr.Online() {
				return fmt.Errorf("service unreachable, cannot sync")
			}
			if err := tr.SyncNow(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "sync complete")
			return nil
		},
	}
	rootCmd.AddCommand(syncCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := newTracker()
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			sess := tr.Session()
			fmt.Fprintf(os.Stdout, "connectivity: %s\n", tr.StatusText())
			fmt.Fprintf(os.Stdout, "session: %s", sess.State)
			if sess.UserID != "" {
				fmt.Fprintf(os.Stdout, " (%s)", sess.UserID)
			}
			fmt.Fprintln(os.Stdout)
			return nil
		},
	}
	rootCmd.AddCommand(statusCmd)

	remindCmd := &cobra.Command{
		Use:   "remind DURATION",
		Short: "Print the item list every DURATION until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := time.ParseDuration(args[0])
			if err != nil {
				return err
			}
			tr, err := newTracker()
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			if err := tr.Load(cmd.Context()); err != nil {
				return err
			}
			if err := tr.StartReminder(interval, func(items []pocketsync.Item) {
				if len(items) == 0 {
					fmt.Fprintln(os.Stdout, "Check your pockets!")
					return
				}
				printItems(items)
			}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			tr.StopReminder()
			return nil
		},
	}
	rootCmd.AddCommand(remindCmd)
}

func printItems(items []pocketsync.Item) {
	if len(items) == 0 {
		fmt.Fprintln(os.Stdout, "no items tracked")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION\tWHEN")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Location, it.Timestamp.Local().Format(time.RFC822))
	}
	_ = w.Flush()
}
