package models

import (
	"encoding/json"
	"fmt"
)

// Reserved node data keys holding ports added to a node at edit time.
const (
	DataKeyDynamicInputs  = "x-omni-dynamicInputs"
	DataKeyDynamicOutputs = "x-omni-dynamicOutputs"
)

// ErrorOutputKey is the output field a failed execution is written to.
const ErrorOutputKey = "error"

// Node is one runtime instance of a component inside a recipe graph.
type Node struct {
	ID        string           `json:"id"        validate:"required"`
	Component string           `json:"component" validate:"required"`
	Data      map[string]any   `json:"data"`
	Inputs    map[string][]any `json:"inputs"`
	Outputs   map[string]any   `json:"outputs"`
}

// NewNode creates an empty node bound to a component key.
func NewNode(id, component string) *Node {
	return &Node{
		ID:        id,
		Component: component,
		Data:      make(map[string]any),
		Inputs:    make(map[string][]any),
		Outputs:   make(map[string]any),
	}
}

// DynamicInputs returns the node-local inputs stored under the reserved data key.
func (n *Node) DynamicInputs() (map[string]IO, error) {
	return n.dynamicPorts(DataKeyDynamicInputs)
}

// DynamicOutputs returns the node-local outputs stored under the reserved data key.
func (n *Node) DynamicOutputs() (map[string]IO, error) {
	return n.dynamicPorts(DataKeyDynamicOutputs)
}

func (n *Node) dynamicPorts(key string) (map[string]IO, error) {
	raw, ok := n.Data[key]
	if !ok || raw == nil {
		return nil, nil
	}

	if ports, ok := raw.(map[string]IO); ok {
		return ports, nil
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	ports := make(map[string]IO)

	err = json.Unmarshal(b, &ports)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	for name, io := range ports {
		if io.Name == "" {
			io.Name = name
			ports[name] = io
		}
	}

	return ports, nil
}

// SetOutputs replaces the node outputs with a deep copy of values.
func (n *Node) SetOutputs(values map[string]any) {
	n.Outputs = CloneMap(values)
}

// SetData stores a deep copy of value under key.
func (n *Node) SetData(key string, value any) {
	if n.Data == nil {
		n.Data = make(map[string]any)
	}

	n.Data[key] = Clone(value)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	inputs := make(map[string][]any, len(n.Inputs))
	for k, v := range n.Inputs {
		inputs[k] = CloneSlice(v)
	}

	return &Node{
		ID:        n.ID,
		Component: n.Component,
		Data:      CloneMap(n.Data),
		Inputs:    inputs,
		Outputs:   CloneMap(n.Outputs),
	}
}
