package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Inspect and manage automation trust",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show trust scores per action type",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🤝 Automation Trust")

		a := mustApp()
		defer a.Close()

		scores, err := a.trust.List(a.cfg.Household.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(scores) == 0 {
			fmt.Println("No automation history yet.")
			return
		}
		for _, s := range scores {
			flag := color.New(color.Faint).Sprint("manual")
			switch {
			case s.AutoApprove:
				flag = color.GreenString("auto")
			case s.CanAutoApprove:
				flag = color.YellowString("eligible")
			}
			fmt.Printf("%-20s %3d ok / %d fail / %d rejected  %5.1f%%  [%s]\n",
				s.ActionType, s.SuccessCount, s.FailureCount, s.RejectCount,
				s.SuccessRate*100, flag)
		}
	},
}

var trustEnableCmd = &cobra.Command{
	Use:   "enable <action-type>",
	Short: "Enable auto-approval for an action type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		if err := a.trust.SetAutoApprove(a.cfg.Household.ID, args[0], true); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Auto-approval enabled for %s\n", args[0])
	},
}

var trustDisableCmd = &cobra.Command{
	Use:   "disable <action-type>",
	Short: "Disable auto-approval for an action type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		if err := a.trust.SetAutoApprove(a.cfg.Household.ID, args[0], false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Auto-approval disabled for %s\n", args[0])
	},
}

var trustResetCmd = &cobra.Command{
	Use:   "reset <action-type>",
	Short: "Reset trust history for an action type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer a.Close()

		if err := a.trust.Reset(a.cfg.Household.ID, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Trust reset for %s\n", args[0])
	},
}

func init() {
	trustCmd.AddCommand(trustListCmd)
	trustCmd.AddCommand(trustEnableCmd)
	trustCmd.AddCommand(trustDisableCmd)
	trustCmd.AddCommand(trustResetCmd)
}
