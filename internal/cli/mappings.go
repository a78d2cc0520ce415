package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"agent-bundles/internal/app"
	"agent-bundles/internal/policies"
)

type validateMappingsOptions struct {
	Agent string
}

func newValidateMappingsCommand() *cobra.Command {
	opts := validateMappingsOptions{}
	cmd := &cobra.Command{
		Use:   "validate-mappings",
		Short: "Check the bundle location catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidateMappings(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Agent, "agent", "", "Show how one bundle resolves")
	return cmd
}

func runValidateMappings(ctx context.Context, opts validateMappingsOptions) error {
	service := newAppService()
	result, err := service.ValidateMappings(ctx, app.MappingsRequest{Bundle: opts.Agent})
	if err != nil {
		return err
	}
	report := result.Report
	fmt.Printf("mapped bundles: %d\n", report.TotalMapped)
	categories := make([]string, 0, len(report.ByCategory))
	for category := range report.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Printf("  %-20s %d\n", category, len(report.ByCategory[category]))
	}
	if len(report.Duplicates) > 0 {
		names := make([]string, 0, len(report.Duplicates))
		for name := range report.Duplicates {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("duplicates:")
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, strings.Join(report.Duplicates[name], ", "))
		}
	}
	if len(report.PotentialIssues) == 0 {
		fmt.Println("no issues found")
	}
	for _, issue := range report.PotentialIssues {
		fmt.Printf("issue: %s\n", issue)
	}
	fmt.Println("sample resolution:")
	for _, sample := range result.Samples {
		fmt.Printf("  %s -> %s%s\n", sample.Bundle, sample.URL, unknownSuffix(sample.Known))
	}
	if result.Bundle != "" {
		fmt.Printf("%s%s\n", result.Bundle, unknownSuffix(result.Known))
		fmt.Printf("  primary:  %s\n", result.Location.Primary)
		for _, fallback := range result.Location.Fallbacks {
			fmt.Printf("  fallback: %s\n", fallback)
		}
	}
	return nil
}

type listAgentsOptions struct {
	Category string
}

func newListAgentsCommand() *cobra.Command {
	opts := listAgentsOptions{}
	cmd := &cobra.Command{
		Use:   "list-agents",
		Short: "List catalogued bundles by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListAgents(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Category, "category", "", "Only list one category")
	return cmd
}

func runListAgents(ctx context.Context, opts listAgentsOptions) error {
	service := newAppService()
	result, err := service.ListBundles(ctx, app.ListBundlesRequest{Category: opts.Category})
	if err != nil {
		return err
	}
	for _, category := range result.Categories {
		fmt.Printf("%s (%d)\n", policies.CategoryName(category.Name), len(category.Bundles))
		for _, bundle := range category.Bundles {
			fmt.Printf("  %-36s %s\n", bundle.Bundle, bundle.URL)
		}
	}
	return nil
}

func unknownSuffix(known bool) string {
	if known {
		return ""
	}
	return " (not in catalog)"
}
