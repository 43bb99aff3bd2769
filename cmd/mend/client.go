package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mendhq/mend/pkg/client"
)

func init() {
	for _, c := range []*cobra.Command{statusCmd, errorsCmd, recoveriesCmd} {
		c.Flags().String("api", "http://localhost:8400", "Address of the mend daemon API")
		c.Flags().Int("limit", 20, "Maximum entries to show")
	}
}

func apiClient(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("api")
	return client.New(addr)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fleet health",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		ctx := context.Background()

		summary, err := c.HealthSummary(ctx)
		if err != nil {
			return err
		}
		services, err := c.Services(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Fleet: %s (uptime %s)\n\n", summary.Status, summary.Uptime)
		fmt.Printf("%-12s %-10s %-10s %s\n", "SERVICE", "HEALTHY", "FAILURES", "LAST POLL")
		for _, s := range services {
			healthy, lastPoll := "unknown", "-"
			if s.Last != nil {
				healthy = fmt.Sprintf("%v", s.Last.Healthy())
				lastPoll = s.Last.Timestamp.Format(time.RFC3339)
			}
			fmt.Printf("%-12s %-10s %-10d %s\n", s.Service, healthy, s.ConsecutiveFailures, lastPoll)
		}
		return nil
	},
}

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show recent classified errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		errs, err := c.RecentErrors(ctx, limit)
		if err != nil {
			return err
		}
		stats, err := c.ErrorStats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-22s %-10s %-9s %-9s %s\n", "KIND", "SEVERITY", "ATTEMPTS", "RESOLVED", "MESSAGE")
		for _, e := range errs {
			msg := e.Message
			if len(msg) > 60 {
				msg = msg[:57] + "..."
			}
			fmt.Printf("%-22s %-10s %-9d %-9v %s\n", e.Kind, e.Severity, e.RecoveryAttempts, e.Resolved, msg)
		}
		fmt.Printf("\nTotal: %d  Resolved: %d  Auto-recoverable: %d\n",
			stats.Total, stats.ResolvedCount, stats.AutoRecoverableCount)
		return nil
	},
}

var recoveriesCmd = &cobra.Command{
	Use:   "recoveries",
	Short: "Show recent recovery actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		actions, err := c.RecentRecoveries(ctx, limit)
		if err != nil {
			return err
		}
		stats, err := c.RecoveryStats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-30s %-9s %s\n", "ACTION", "SUCCESS", "DETAILS")
		for _, a := range actions {
			fmt.Printf("%-30s %-9v %s\n", a.ActionType, a.Success, a.Details)
		}
		fmt.Printf("\nAttempts: %d  Succeeded: %d  Failed: %d\n",
			stats.Attempts, stats.Succeeded, stats.Failed)
		return nil
	},
}
