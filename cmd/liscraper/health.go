package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health <userID>",
	Short: "Show an account's usage counters and cooldown state",
	Args:  cobra.ExactArgs(1),
	Run:   runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) {
	userID := args[0]

	a, err := newApp()
	if err != nil {
		fatal("failed to initialize", err)
	}
	defer a.close()

	h, err := a.health.Status(userID)
	if err != nil {
		fatal("failed to read account health", err)
	}

	status := "active"
	if !h.IsActive {
		status = "inactive"
	}
	fmt.Printf("Account health for %s:\n", userID)
	fmt.Printf("  Status:               %s\n", status)
	fmt.Printf("  Requests:             %d\n", h.RequestCount)
	fmt.Printf("  Successes:            %d\n", h.SuccessCount)
	fmt.Printf("  Failures:             %d\n", h.FailureCount)
	fmt.Printf("  Consecutive failures: %d\n", h.ConsecutiveFailures)
	fmt.Printf("  Checkpoints:          %d\n", h.CheckpointCount)
	if h.CooldownUntil != nil && h.CooldownUntil.After(time.Now()) {
		fmt.Printf("  Cooldown until:       %s (%s remaining)\n",
			h.CooldownUntil.Format("2006-01-02 15:04:05"),
			time.Until(*h.CooldownUntil).Round(time.Second))
	}
	if h.LastRequestAt != nil {
		fmt.Printf("  Last request:         %s\n", h.LastRequestAt.Format("2006-01-02 15:04:05"))
	}
	if h.LastSuccessAt != nil {
		fmt.Printf("  Last success:         %s\n", h.LastSuccessAt.Format("2006-01-02 15:04:05"))
	}
	if h.LastCheckpointAt != nil {
		fmt.Printf("  Last checkpoint:      %s\n", h.LastCheckpointAt.Format("2006-01-02 15:04:05"))
	}
}
