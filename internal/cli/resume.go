package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"agent-bundles/internal/app"
	"agent-bundles/internal/types"
)

type resumeOptions struct {
	ID string
}

func newResumeCommand() *cobra.Command {
	opts := resumeOptions{}
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Finish an installation after the assistant restart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResume(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "Installation id printed by setup")
	return cmd
}

func runResume(ctx context.Context, opts resumeOptions) error {
	service := newAppService()
	result, err := service.Resume(ctx, app.ResumeRequest{ID: opts.ID})
	if err != nil {
		return err
	}
	printFailures("not usable", result.Warnings)
	fmt.Printf("installation %s: %s\n", result.InstallationID, result.Phase)
	if result.Message != "" {
		fmt.Println(result.Message)
	}
	return nil
}

func printFailures(label string, failures []types.BundleFailure) {
	for _, failure := range failures {
		line := fmt.Sprintf("%s: %s", label, failure.Bundle)
		if failure.Substitute != "" {
			line += " (use " + failure.Substitute + " instead)"
		}
		fmt.Println(line)
		for _, message := range failure.Errors {
			fmt.Printf("  %s\n", message)
		}
	}
}
