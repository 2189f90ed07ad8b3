// Command synapse-sandbox is a thin CLI around the sandbox package: it
// loads a Config, starts a SandboxManager, and executes commands read from
// stdin under the resulting policy. Skill parsing, MCP importers, and UI
// rendering live in the surrounding agentic CLI and are out of scope here.
package main

import "os"

func main() {
	sigCh, stop := setupSignals()
	defer stop()

	os.Exit(Run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:], os.Environ(), sigCh))
}
