package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent installation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func runStatus(ctx context.Context) error {
	service := newAppService()
	result, err := service.Status(ctx)
	if err != nil {
		return err
	}
	if !result.Found {
		fmt.Println("no installation in progress")
		return nil
	}
	fmt.Printf("installation: %s\n", result.InstallationID)
	fmt.Printf("phase:        %s\n", result.Phase)
	fmt.Printf("project type: %s\n", result.ProjectType)
	fmt.Printf("bundles:      %d\n", result.TotalBundles)
	fmt.Printf("todos:        %d completed, %d pending\n", result.Completed, result.Pending)
	fmt.Printf("created:      %s\n", result.CreatedAt.Format(time.RFC3339))
	fmt.Printf("updated:      %s\n", result.UpdatedAt.Format(time.RFC3339))
	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	return nil
}
