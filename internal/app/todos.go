package app

import "fmt"

const (
	todoHooks        = "Set up SDLC git hooks"
	todoBranch       = "Configure branch protection"
	todoWorkflow     = "Install GitHub Actions workflow"
	todoRestart      = "Restart the assistant for bundles to activate"
	todoPostValidate = "Run post-restart validation"
	todoTeamVerify   = "Complete team-first setup verification"
)

func downloadTodo(count int) string {
	return fmt.Sprintf("Download and validate %d bundles", count)
}

// seededTodos lists the steps tracked for every new installation, in order.
func seededTodos(bundleCount int) []string {
	return []string{
		downloadTodo(bundleCount),
		todoHooks,
		todoBranch,
		todoWorkflow,
		todoRestart,
		todoPostValidate,
		todoTeamVerify,
	}
}
