package parser

import (
	"github.com/flowkit-dev/flowkit/pkg/models"
)

// dependencyGraph is the adjacency view of a workflow's connections, keyed by
// node name. order preserves node declaration order for deterministic
// traversal and tie-breaking.
type dependencyGraph struct {
	order        []string
	dependents   map[string][]string // node -> nodes that depend on it (outgoing edges)
	dependencies map[string][]string // node -> nodes it depends on (incoming edges)
}

func buildGraph(order []string, connections []models.Connection) *dependencyGraph {
	g := &dependencyGraph{
		order:        order,
		dependents:   make(map[string][]string, len(order)),
		dependencies: make(map[string][]string, len(order)),
	}

	for _, name := range order {
		g.dependents[name] = nil
		g.dependencies[name] = nil
	}

	for _, conn := range connections {
		g.dependents[conn.SourceNode] = append(g.dependents[conn.SourceNode], conn.TargetNode)
		g.dependencies[conn.TargetNode] = append(g.dependencies[conn.TargetNode], conn.SourceNode)
	}

	return g
}

// dfsFrame is one entry of the explicit DFS stack. Native recursion is
// avoided so pathologically deep graphs cannot exhaust the call stack.
type dfsFrame struct {
	node string
	next int
}

// detectCycle runs a depth-first traversal from each unvisited node,
// maintaining a recursion stack. On revisiting a node already on the stack it
// returns the cycle path: the slice of the current path starting at the
// repeated node.
func (g *dependencyGraph) detectCycle() (bool, []string) {
	visited := make(map[string]bool, len(g.order))
	onPath := make(map[string]bool, len(g.order))

	for _, start := range g.order {
		if visited[start] {
			continue
		}

		stack := []dfsFrame{{node: start}}
		path := []string{start}
		visited[start] = true
		onPath[start] = true

		for len(stack) > 0 {
			frame := &stack[len(stack)-1]
			children := g.dependents[frame.node]

			if frame.next < len(children) {
				child := children[frame.next]
				frame.next++

				if onPath[child] {
					for i, name := range path {
						if name == child {
							cycle := make([]string, len(path)-i)
							copy(cycle, path[i:])

							return true, cycle
						}
					}
				}

				if !visited[child] {
					visited[child] = true
					onPath[child] = true
					stack = append(stack, dfsFrame{node: child})
					path = append(path, child)
				}

				continue
			}

			onPath[frame.node] = false
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}

	return false, nil
}

// topologicalOrder runs Kahn's algorithm. The queue is seeded with all
// zero-in-degree nodes in declaration order, giving a stable, deterministic
// tie-break. The second result lists nodes left with nonzero in-degree after
// the queue drains (a cycle or disconnected component); callers surface them
// as a warning rather than dropping them silently.
func (g *dependencyGraph) topologicalOrder() ([]string, []string) {
	inDegree := make(map[string]int, len(g.order))
	for _, name := range g.order {
		inDegree[name] = len(g.dependencies[name])
	}

	queue := make([]string, 0, len(g.order))

	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	ordered := make([]string, 0, len(g.order))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		ordered = append(ordered, node)

		for _, dependent := range g.dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	var residual []string

	for _, name := range g.order {
		if inDegree[name] > 0 {
			residual = append(residual, name)
		}
	}

	return ordered, residual
}

// isIsolated reports whether a node has neither dependencies nor dependents.
func (g *dependencyGraph) isIsolated(name string) bool {
	return len(g.dependencies[name]) == 0 && len(g.dependents[name]) == 0
}
