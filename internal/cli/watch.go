package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var watchOwner string

var watchCmd = &cobra.Command{
	Use:   "watch <calendar-id>",
	Short: "Start watching a calendar for changes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("👀 hearth Watch")

		a := mustApp()
		defer a.Close()

		owner := watchOwner
		if owner == "" {
			owner = a.cfg.Provider.OwnerOf(args[0])
		}
		sub, err := a.subs.Register(context.Background(), owner, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Watching %s (channel %s, expires %s)\n",
			sub.CalendarID, sub.ChannelID, sub.Expiration.Format("2006-01-02 15:04"))
	},
}

var unwatchCmd = &cobra.Command{
	Use:   "unwatch <calendar-id>",
	Short: "Stop watching a calendar",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🙈 hearth Unwatch")

		a := mustApp()
		defer a.Close()

		if err := a.subs.Teardown(context.Background(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stopped watching %s\n", args[0])
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOwner, "owner", "", "household member who owns this calendar")
}
