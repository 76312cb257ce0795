package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hearth-hq/hearth/internal/action"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Manage pending actions",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var actionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List actions awaiting approval",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("⏳ Pending Actions")

		a := mustApp()
		defer a.Close()

		rows, err := a.orch.PendingActions(a.cfg.Household.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(rows) == 0 {
			fmt.Println("No pending actions.")
			return
		}
		for _, row := range rows {
			fmt.Printf("%s  %s  %s\n", color.YellowString(row.ID), row.ActionType,
				color.New(color.Faint).Sprintf("(%s risk, expires %s)", row.RiskLevel,
					row.ExpiresAt.Format("Jan 2 15:04")))
			if row.Reason != "" {
				fmt.Printf("    %s\n", row.Reason)
			}
		}
	},
}

var actionsApproveCmd = &cobra.Command{
	Use:   "approve <action-id>",
	Short: "Approve and execute a pending action",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		res, err := a.orch.ConfirmAction(context.Background(), args[0])
		switch {
		case errors.Is(err, action.ErrExpired):
			fmt.Println("Action expired before it could be approved.")
			os.Exit(1)
		case errors.Is(err, action.ErrNotPending):
			fmt.Println("Action is no longer pending.")
			os.Exit(1)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s %s\n", color.GreenString("Executed:"), res.Outcome)
	},
}

var actionsRejectCmd = &cobra.Command{
	Use:   "reject <action-id>",
	Short: "Reject a pending action",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		reason, _ := cmd.Flags().GetString("reason")
		if _, err := a.orch.RejectPendingAction(context.Background(), args[0], reason); err != nil {
			if errors.Is(err, action.ErrNotPending) {
				fmt.Println("Action is no longer pending.")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println(color.RedString("Rejected."))
	},
}

func init() {
	actionsRejectCmd.Flags().String("reason", "", "why the action was rejected")
	actionsCmd.AddCommand(actionsListCmd)
	actionsCmd.AddCommand(actionsApproveCmd)
	actionsCmd.AddCommand(actionsRejectCmd)
}
