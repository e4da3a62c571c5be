package dataflow

import (
	"fmt"
	"sync"

	"github.com/perftree/perftree/pkg/collections"
	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
)

type entry struct {
	id    string
	node  Node
	state model.NodeState
}

// Graph is a typed, validated DAG of analysis Nodes. Node identifiers are
// assigned on AddNode as "{name}_{counter}", with the counter local to this
// graph and guarded by mu, so independently built graphs never share a
// sequence.
type Graph struct {
	name string

	mu        sync.Mutex
	idCounter int
	nodes     map[string]*entry
	order     []string // insertion order, for stable iteration
	edges     []Edge
	adjacency map[string][]string // id -> successor ids
	reverse   map[string][]string // id -> predecessor ids
}

// NewGraph creates an empty graph named name.
func NewGraph(name string) *Graph {
	return &Graph{
		name:      name,
		nodes:     make(map[string]*entry),
		adjacency: make(map[string][]string),
		reverse:   make(map[string][]string),
	}
}

// Name returns the graph's human-readable name.
func (g *Graph) Name() string { return g.name }

// AddNode registers node and returns the id it was assigned.
func (g *Graph) AddNode(node Node) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idCounter++
	id := fmt.Sprintf("%s_%d", node.Name(), g.idCounter)
	g.nodes[id] = &entry{id: id, node: node, state: model.StatePending}
	g.order = append(g.order, id)
	g.adjacency[id] = nil
	g.reverse[id] = nil
	return id
}

// RemoveNode deletes id and every edge touching it.
func (g *Graph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return
	}

	filtered := g.edges[:0]
	for _, e := range g.edges {
		if e.SourceID == id || e.TargetID == id {
			continue
		}
		filtered = append(filtered, e)
	}
	g.edges = filtered

	for nid, succs := range g.adjacency {
		g.adjacency[nid] = removeString(succs, id)
	}
	for nid, preds := range g.reverse {
		g.reverse[nid] = removeString(preds, id)
	}
	delete(g.adjacency, id)
	delete(g.reverse, id)
	delete(g.nodes, id)

	order := g.order[:0]
	for _, nid := range g.order {
		if nid != id {
			order = append(order, nid)
		}
	}
	g.order = order
}

func removeString(s []string, target string) []string {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// Connect wires source's output port to target's input port, using the same
// port name on both ends.
func (g *Graph) Connect(sourceID, targetID, port string) error {
	return g.ConnectPorts(sourceID, port, targetID, port)
}

// ConnectPorts wires sourceID.sourcePort to targetID.targetPort. It fails
// with a GraphSchemaError if either node is missing or either named port
// does not exist.
func (g *Graph) ConnectPorts(sourceID, sourcePort, targetID, targetPort string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[sourceID]
	if !ok {
		return perrors.NewGraphSchemaError(fmt.Sprintf("dataflow: source node %q not in graph", sourceID))
	}
	dst, ok := g.nodes[targetID]
	if !ok {
		return perrors.NewGraphSchemaError(fmt.Sprintf("dataflow: target node %q not in graph", targetID))
	}
	if _, ok := src.node.OutputPorts()[sourcePort]; !ok {
		return perrors.NewGraphSchemaError(fmt.Sprintf(
			"dataflow: source node %q has no output port %q", src.node.Name(), sourcePort))
	}
	if _, ok := dst.node.InputPorts()[targetPort]; !ok {
		return perrors.NewGraphSchemaError(fmt.Sprintf(
			"dataflow: target node %q has no input port %q", dst.node.Name(), targetPort))
	}
	for _, e := range g.edges {
		if e.SourceID == sourceID && e.SourcePort == sourcePort && e.TargetID == targetID && e.TargetPort == targetPort {
			return perrors.NewGraphSchemaError(fmt.Sprintf("dataflow: duplicate edge %s", e))
		}
	}

	g.edges = append(g.edges, Edge{SourceID: sourceID, SourcePort: sourcePort, TargetID: targetID, TargetPort: targetPort})
	g.adjacency[sourceID] = append(g.adjacency[sourceID], targetID)
	g.reverse[targetID] = append(g.reverse[targetID], sourceID)
	return nil
}

// NodeIDs returns every node id in insertion order.
func (g *Graph) NodeIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Node returns the Node registered under id.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// Edges returns every edge in the graph.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Predecessors returns the ids of nodes with an edge into id.
func (g *Graph) Predecessors(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.reverse[id]))
	copy(out, g.reverse[id])
	return out
}

// Successors returns the ids of nodes id has an edge into.
func (g *Graph) Successors(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.adjacency[id]))
	copy(out, g.adjacency[id])
	return out
}

// State returns id's current lifecycle state.
func (g *Graph) State(id string) model.NodeState {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.nodes[id]
	if !ok {
		return model.StatePending
	}
	return e.state
}

// SetState transitions id to state. The lifecycle state machine is enforced
// by the executors, which are the only callers; Graph itself just stores it.
func (g *Graph) SetState(id string, state model.NodeState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.nodes[id]; ok {
		e.state = state
	}
}

// Reset returns every node to PENDING.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.nodes {
		e.state = model.StatePending
	}
}

// TopologicalSort orders node ids by Kahn's algorithm (dependencies before
// dependents). Ties among ids with equal in-degree are broken by insertion
// order, for a deterministic schedule. Returns CycleError if the graph is
// not a DAG.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.Lock()
	order := make([]string, len(g.order))
	copy(order, g.order)
	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = len(g.reverse[id])
	}
	adjacency := make(map[string][]string, len(g.adjacency))
	for id, succs := range g.adjacency {
		s := make([]string, len(succs))
		copy(s, succs)
		adjacency[id] = s
	}
	g.mu.Unlock()

	queue := collections.NewQueue[string](len(order))
	for _, id := range order {
		if inDegree[id] == 0 {
			queue.Enqueue(id)
		}
	}

	var result []string
	for {
		id, ok := queue.Dequeue()
		if !ok {
			break
		}
		result = append(result, id)
		for _, succ := range adjacency[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue.Enqueue(succ)
			}
		}
	}

	if len(result) != len(order) {
		return nil, perrors.NewCycleError(cyclePath(order, result))
	}
	return result, nil
}

// cyclePath reports the ids Kahn's algorithm never emitted: every node on
// (or feeding into) the cycle.
func cyclePath(all, emitted []string) []string {
	seen := make(map[string]bool, len(emitted))
	for _, id := range emitted {
		seen[id] = true
	}
	var stuck []string
	for _, id := range all {
		if !seen[id] {
			stuck = append(stuck, id)
		}
	}
	return stuck
}

// ParallelGroups partitions node ids into levels by longest-path depth from
// source nodes (nodes with no predecessors): nodes in the same group have no
// dependency on each other. Group 0 is every source node.
func (g *Graph) ParallelGroups() ([][]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	reverse := make(map[string][]string, len(g.reverse))
	for id, preds := range g.reverse {
		p := make([]string, len(preds))
		copy(p, preds)
		reverse[id] = p
	}
	g.mu.Unlock()

	depth := make(map[string]int, len(order))
	maxDepth := 0
	for _, id := range order {
		d := 0
		for _, pred := range reverse[id] {
			if depth[pred]+1 > d {
				d = depth[pred] + 1
			}
		}
		depth[id] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	groups := make([][]string, maxDepth+1)
	for _, id := range order {
		groups[depth[id]] = append(groups[depth[id]], id)
	}
	return groups, nil
}

// Validate checks the graph is a DAG (no cycles) and that every node with at
// least one predecessor has all of its required input ports connected.
// Source nodes (no predecessors) are exempt: they're expected to carry their
// own configuration rather than consume upstream outputs.
func (g *Graph) Validate() error {
	if _, err := g.TopologicalSort(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	connected := make(map[string]map[string]bool, len(g.nodes))
	for id := range g.nodes {
		connected[id] = make(map[string]bool)
	}
	for _, e := range g.edges {
		connected[e.TargetID][e.TargetPort] = true
	}

	for id, e := range g.nodes {
		if len(g.reverse[id]) == 0 {
			continue
		}
		for port := range e.node.InputPorts() {
			if !connected[id][port] {
				return perrors.NewGraphSchemaError(fmt.Sprintf(
					"dataflow: node %q has unconnected input port %q", e.node.Name(), port))
			}
		}
	}
	return nil
}
