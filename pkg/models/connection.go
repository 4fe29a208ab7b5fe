package models

import "sort"

// DefaultConnectionType is the connection type used when a document or
// builder call does not specify one.
const DefaultConnectionType = "main"

// Connection is the flattened, analysis-friendly view of a single edge
// between two nodes. Endpoints are node names.
type Connection struct {
	SourceNode     string `json:"sourceNode"     validate:"required"`
	TargetNode     string `json:"targetNode"     validate:"required"`
	SourceOutput   int    `json:"sourceOutput"`
	TargetInput    int    `json:"targetInput"`
	ConnectionType string `json:"connectionType"`
}

// ConnectionTarget is the wire-format endpoint of a connection as it appears
// inside a workflow document.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// ConnectionMap is the wire format for workflow connections:
// source node name -> connection type -> output slot -> targets.
type ConnectionMap map[string]map[string][][]ConnectionTarget

// Flatten converts the nested wire format into a flat connection list.
// Source names and connection types are visited in sorted order so the
// result is deterministic regardless of document key order.
func (cm ConnectionMap) Flatten() []Connection {
	if len(cm) == 0 {
		return nil
	}

	sources := make([]string, 0, len(cm))
	for source := range cm {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	var connections []Connection

	for _, source := range sources {
		byType := cm[source]

		connTypes := make([]string, 0, len(byType))
		for connType := range byType {
			connTypes = append(connTypes, connType)
		}

		sort.Strings(connTypes)

		for _, connType := range connTypes {
			for output, targets := range byType[connType] {
				for _, target := range targets {
					connections = append(connections, Connection{
						SourceNode:     source,
						TargetNode:     target.Node,
						SourceOutput:   output,
						TargetInput:    target.Index,
						ConnectionType: connType,
					})
				}
			}
		}
	}

	return connections
}

// Add inserts a connection into the nested wire format, growing output slots
// as needed.
func (cm ConnectionMap) Add(conn Connection) {
	connType := conn.ConnectionType
	if connType == "" {
		connType = DefaultConnectionType
	}

	byType, ok := cm[conn.SourceNode]
	if !ok {
		byType = make(map[string][][]ConnectionTarget)
		cm[conn.SourceNode] = byType
	}

	slots := byType[connType]
	for len(slots) <= conn.SourceOutput {
		slots = append(slots, []ConnectionTarget{})
	}

	slots[conn.SourceOutput] = append(slots[conn.SourceOutput], ConnectionTarget{
		Node:  conn.TargetNode,
		Type:  connType,
		Index: conn.TargetInput,
	})
	byType[connType] = slots
}
