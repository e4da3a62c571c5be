package dataflow

import "fmt"

// Edge connects one node's output port to another node's input port.
// Construction (via Graph.Connect) validates both ports exist before the
// edge is added.
type Edge struct {
	SourceID   string
	SourcePort string
	TargetID   string
	TargetPort string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.SourceID, e.SourcePort, e.TargetID, e.TargetPort)
}
