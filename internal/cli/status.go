package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearth-hq/hearth/internal/config"
	"github.com/hearth-hq/hearth/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ hearth Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 hearth Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				fmt.Println("Config:  ✓ Found (" + path + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (" + path + ")")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config:  ? Unable to load: %v\n", err)
			return
		}
		if cfg.Household.ParentB != "" {
			fmt.Printf("Household: %s (%s + %s, %d children)\n",
				cfg.Household.ID, cfg.Household.ParentA, cfg.Household.ParentB, len(cfg.Household.Children))
		} else {
			fmt.Printf("Household: %s (%s, %d children)\n",
				cfg.Household.ID, cfg.Household.ParentA, len(cfg.Household.Children))
		}
		fmt.Printf("Calendars: %d watched\n", len(cfg.Provider.Calendars))
		if cfg.Channels.Slack.Enabled {
			fmt.Println("Slack:   ✓ Enabled")
		} else {
			fmt.Println("Slack:   ✗ Disabled")
		}
		if cfg.Channels.Bridge.Enabled {
			fmt.Println("Bridge:  ✓ Enabled")
		} else {
			fmt.Println("Bridge:  ✗ Disabled")
		}
		if cfg.Audit.Enabled {
			fmt.Println("Audit:   ✓ Enabled (" + cfg.Audit.Brokers + ")")
		}

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			fmt.Printf("Store:   ✗ %v\n", err)
			return
		}
		defer st.Close()
		fmt.Println("Store:   ✓ " + cfg.Store.Path)

		if subs, err := st.ActiveSubscriptionsExpiringWithin(time.Now(), cfg.Provider.ChannelTTL); err == nil {
			fmt.Printf("Subscriptions expiring within TTL: %d\n", len(subs))
		}
		if counts, err := st.CountInsightsByStatus(); err == nil && len(counts) > 0 {
			fmt.Printf("Insights: %d pending, %d sent, %d resolved\n",
				counts[store.InsightPending], counts[store.InsightSent], counts[store.InsightResolved])
		}
	},
}
