package graphapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NodeInput is a single input value on a Node.  It is either a Literal
// scalar/string value, or an EdgeRef pointing at another node's output slot.
type NodeInput interface {
	json.Marshaler
	nodeInput()
}

// Literal is a plain input value (string, number or bool).
type Literal struct {
	Value interface{}
}

func (Literal) nodeInput() {}

func (l Literal) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Value)
}

// EdgeRef references the output slot of another node in the same graph.
// The engine's wire format for an edge is a two element array:
// ["<producer node id>", <slot index>]
type EdgeRef struct {
	NodeID string
	Slot   int
}

func (EdgeRef) nodeInput() {}

func (e EdgeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.NodeID, e.Slot})
}

// String creates a string Literal input.
func String(v string) Literal { return Literal{Value: v} }

// Int creates an integer Literal input.
func Int(v int) Literal { return Literal{Value: v} }

// Int64 creates a 64 bit integer Literal input.  Seeds can exceed int32.
func Int64(v int64) Literal { return Literal{Value: v} }

// Float creates a float Literal input.
func Float(v float64) Literal { return Literal{Value: v} }

// Bool creates a boolean Literal input.
func Bool(v bool) Literal { return Literal{Value: v} }

// Edge creates an EdgeRef input referencing slot of the node with the given id.
func Edge(nodeID string, slot int) EdgeRef { return EdgeRef{NodeID: nodeID, Slot: slot} }

// decodeInput reconstructs the NodeInput union from its raw JSON form.
// A two element array of [string, number] is an edge, everything else is
// treated as a literal.
func decodeInput(raw json.RawMessage) (NodeInput, error) {
	var arr []interface{}
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) == 2 {
			id, idok := arr[0].(string)
			slot, slotok := arr[1].(float64)
			if idok && slotok {
				return EdgeRef{NodeID: id, Slot: int(slot)}, nil
			}
		}
		return nil, fmt.Errorf("malformed edge reference: %s", string(raw))
	}

	var val interface{}
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, errors.New("input is neither a literal nor an edge")
	}
	return Literal{Value: val}, nil
}
