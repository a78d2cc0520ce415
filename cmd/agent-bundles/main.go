package main

import "agent-bundles/internal/cli"

func main() {
	cli.Execute()
}
