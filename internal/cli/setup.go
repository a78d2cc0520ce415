package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"agent-bundles/internal/app"
	"agent-bundles/internal/core"
)

type setupOptions struct {
	Verbose    bool
	SkipGate   bool
	DryRun     bool
	Sequential bool
	MaxWorkers int
}

func newSetupCommand() *cobra.Command {
	opts := setupOptions{}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Select, fetch and install bundles for this project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "Also install recommended bundles")
	cmd.Flags().BoolVar(&opts.SkipGate, "skip-gate", false, "Skip the team-first preflight checks")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show the selection without installing")
	cmd.Flags().BoolVar(&opts.Sequential, "sequential", false, "Fetch bundles one at a time")
	cmd.Flags().IntVar(&opts.MaxWorkers, "max-workers", core.DefaultMaxWorkers, "Concurrent fetch workers")
	return cmd
}

func runSetup(ctx context.Context, cmd *cobra.Command, opts setupOptions) error {
	service := newAppService()
	result, err := service.Setup(ctx, app.SetupRequest{
		Verbose:    resolveBool(cmd, opts.Verbose, "verbose", "verbose"),
		SkipGate:   resolveBool(cmd, opts.SkipGate, "skip_gate", "skip-gate"),
		DryRun:     resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
		Sequential: resolveBool(cmd, opts.Sequential, "sequential", "sequential"),
		MaxWorkers: resolveInt(cmd, opts.MaxWorkers, "max_workers", "max-workers"),
	})
	printGate(result.Gate)
	if err != nil {
		printFailures("failed", result.Fatal)
		if result.InstallationID != "" {
			fmt.Printf("installation %s: %s\n", result.InstallationID, result.Phase)
		}
		return err
	}
	fmt.Printf("project type: %s\n", result.Discovery.ProjectType)
	if result.NoOp {
		fmt.Println("all required bundles are already installed")
		return nil
	}
	fmt.Printf("selected %d bundles: %s\n", len(result.Selected), strings.Join(result.Selected, ", "))
	if result.DryRun {
		fmt.Println("dry run: nothing was installed")
		return nil
	}
	printFailures("unavailable", result.Warnings)
	fmt.Println()
	fmt.Print(result.Instructions)
	return nil
}

func printGate(report core.GateReport) {
	if report.Skipped {
		fmt.Println("preflight gate: skipped")
		return
	}
	for _, check := range report.Checks {
		status := "ok"
		if !check.Passed {
			status = "FAILED"
		}
		fmt.Printf("preflight %-24s %s\n", check.Name, status)
	}
}
