package graphapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDanglingEdge  = errors.New("edge references a node not present in the graph")
	ErrCycleDetected = errors.New("graph contains a cycle")
	ErrMissingType   = errors.New("node has no class type")
)

// Node is a single processing step in a Graph: an opaque class type plus
// its named inputs.
type Node struct {
	ClassType NodeType
	Inputs    map[string]NodeInput
}

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ClassType NodeType             `json:"class_type"`
		Inputs    map[string]NodeInput `json:"inputs"`
	}{n.ClassType, n.Inputs})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ClassType NodeType                   `json:"class_type"`
		Inputs    map[string]json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.ClassType = raw.ClassType
	n.Inputs = make(map[string]NodeInput, len(raw.Inputs))
	for name, rv := range raw.Inputs {
		in, err := decodeInput(rv)
		if err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
		n.Inputs[name] = in
	}
	return nil
}

// Graph is a mapping from node id to Node.  Builders only ever emit
// straight-line DAGs, but hand-edited graphs may be loaded from JSON, so
// Validate also walks for cycles.
type Graph map[string]Node

// Set adds or replaces the node with the given id.
func (g Graph) Set(id string, classType NodeType, inputs map[string]NodeInput) {
	g[id] = Node{ClassType: classType, Inputs: inputs}
}

// Node returns the node with the given id, or false when absent.
func (g Graph) Node(id string) (Node, bool) {
	n, ok := g[id]
	return n, ok
}

// SetInput rewires a single input on an existing node.
func (g Graph) SetInput(id, name string, in NodeInput) error {
	n, ok := g[id]
	if !ok {
		return fmt.Errorf("no node with id %q", id)
	}
	n.Inputs[name] = in
	return nil
}

// Validate rejects graphs that the engine would fail outright: empty
// graphs, nodes without a class type, dangling edge references and cycles.
func (g Graph) Validate() error {
	if len(g) == 0 {
		return errors.New("graph has no nodes")
	}

	for id, node := range g {
		if node.ClassType == "" {
			return fmt.Errorf("node %q: %w", id, ErrMissingType)
		}
		for name, in := range node.Inputs {
			edge, ok := in.(EdgeRef)
			if !ok {
				continue
			}
			if edge.Slot < 0 {
				return fmt.Errorf("node %q input %q: negative slot index %d", id, name, edge.Slot)
			}
			if _, ok := g[edge.NodeID]; !ok {
				return fmt.Errorf("node %q input %q references %q: %w", id, name, edge.NodeID, ErrDanglingEdge)
			}
		}
	}

	return g.checkAcyclic()
}

// checkAcyclic is a defensive DFS over edge references.  Builders cannot
// produce cycles, hand-edited graphs can.
func (g Graph) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("at node %q: %w", id, ErrCycleDetected)
		case done:
			return nil
		}
		state[id] = visiting
		for _, in := range g[id].Inputs {
			if edge, ok := in.(EdgeRef); ok {
				if err := visit(edge.NodeID); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for id := range g {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
