// Command perftree is a thin CLI wiring the core packages together:
// CollapsedReader -> TreeBuilder -> WorkflowBuilder -> Executor -> report.
package main

import "github.com/perftree/perftree/cmd/perftree/cmd"

func main() {
	cmd.Execute()
}
