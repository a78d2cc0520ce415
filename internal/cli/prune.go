package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"agent-bundles/internal/app"
)

type pruneOptions struct {
	KeepLast int
	KeepDays int
	DryRun   bool
}

func newPruneCommand() *cobra.Command {
	opts := pruneOptions{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove finished installation records based on retention policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 5, "Keep the last N installations")
	cmd.Flags().IntVar(&opts.KeepDays, "keep-days", 0, "Keep installations newer than N days")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", true, "Only report prune actions without deleting")
	return cmd
}

func runPrune(ctx context.Context, cmd *cobra.Command, opts pruneOptions) error {
	service := newAppService()
	keepLast := opts.KeepLast
	if !flagChanged(cmd, "keep-last") && viper.IsSet("retention.keep_last") {
		keepLast = viper.GetInt("retention.keep_last")
	}
	keepDays := opts.KeepDays
	if !flagChanged(cmd, "keep-days") && viper.IsSet("retention.keep_days") {
		keepDays = viper.GetInt("retention.keep_days")
	}
	result, err := service.PruneInstallations(ctx, app.PruneRequest{
		KeepLast: keepLast,
		KeepDays: keepDays,
		DryRun:   opts.DryRun,
	})
	if err != nil {
		return err
	}
	if result.DryRun {
		fmt.Printf("prune dry-run: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
		return nil
	}
	fmt.Printf("pruned: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
	for _, id := range result.Deleted {
		fmt.Printf("  deleted %s\n", id)
	}
	return nil
}
