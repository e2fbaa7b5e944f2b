// Package postprocess implements the post-phase-tracking DAG: a directed
// acyclic graph of Source/Simple/Delay/Multiply/Filter/Matrix nodes that
// combines and reshapes per-channel pulse lists before they reach the
// sampler. Execution topologically sorts the graph, then drains each node's
// inbox through pulselist.Sum before forwarding to its successors.
package postprocess

import (
	"fmt"

	"github.com/arborwave/pulsegen/internal/pgerr"
	"github.com/arborwave/pulsegen/internal/pulselist"
)

// NodeKind selects a Node's execution behavior.
type NodeKind int

const (
	Source NodeKind = iota
	Simple
	Delay
	Multiply
	Filter
	Matrix
)

// Edge connects an output slot of a source node to an input slot of a
// destination node. Matrix nodes have one output slot per matrix row and
// consume inputs keyed by the source node's id; all other kinds have
// exactly one input and one output slot.
type Edge struct {
	From, To     int
	FromSlot     int
	ToSlot       int
}

// Node is one DAG vertex. Which fields apply depends on Kind:
// Delay uses DelayTime; Multiply uses Multiplier; Filter uses FilterName;
// Matrix uses Matrix/MatrixInputs/MatrixOutputs; Source uses SourceList.
type Node struct {
	Kind NodeKind
	Name string

	SourceList *pulselist.List

	DelayTime  float64
	Multiplier complex128
	FilterName string

	Matrix        [][]complex128
	MatrixInputs  []int // node ids, in column order
	MatrixOutputs []int // node ids, in row order (len == len(Matrix))
}

// Graph is a DAG of Nodes connected by Edges.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// NewGraph builds an empty Graph.
func NewGraph() *Graph { return &Graph{} }

// AddNode appends n and returns its id.
func (g *Graph) AddNode(n Node) int {
	g.Nodes = append(g.Nodes, n)
	return len(g.Nodes) - 1
}

// Connect adds an edge from one node's output slot to another's input slot.
func (g *Graph) Connect(from, to, fromSlot, toSlot int) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, FromSlot: fromSlot, ToSlot: toSlot})
}

type inboxEntry struct {
	sourceID int
	slot     int
	list     *pulselist.List
}

// Run topologically sorts g, executes every node, and returns the output
// list of each terminal node — one with no outgoing edges — keyed by node
// id; these are the post-processed pulse lists the sampler consumes. A
// Matrix node delivers its rows to its MatrixOutputs nodes and never
// appears in the result itself.
func Run(g *Graph, timeTol, ampTol float64) (map[int]*pulselist.List, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	inbox := make(map[int][]inboxEntry)
	outSingle := make(map[int]*pulselist.List)
	// outByTarget[targetID] holds per-source-row lists for Matrix fan-out
	// so each downstream node receives only the row addressed to it.
	outByTarget := make(map[int]map[int]*pulselist.List)

	successors := make(map[int][]Edge)
	for _, e := range g.Edges {
		successors[e.From] = append(successors[e.From], e)
	}

	for _, id := range order {
		n := &g.Nodes[id]
		switch n.Kind {
		case Source:
			outSingle[id] = n.SourceList

		case Simple:
			merged := mergeInbox(inbox[id], timeTol, ampTol)
			outSingle[id] = merged

		case Delay:
			merged := mergeInbox(inbox[id], timeTol, ampTol)
			outSingle[id] = merged.TimeShifted(n.DelayTime)

		case Multiply:
			merged := mergeInbox(inbox[id], timeTol, ampTol)
			outSingle[id] = merged.Scaled(n.Multiplier)

		case Filter:
			merged := mergeInbox(inbox[id], timeTol, ampTol)
			outSingle[id] = merged.Filtered(n.FilterName)

		case Matrix:
			rows, err := runMatrix(n, inbox[id], timeTol, ampTol)
			if err != nil {
				return nil, pgerr.Wrap(pgerr.InvalidInput, "", n.Name, err)
			}
			m := make(map[int]*pulselist.List, len(n.MatrixOutputs))
			for i, outID := range n.MatrixOutputs {
				if i < len(rows) {
					m[outID] = rows[i]
				}
			}
			outByTarget[id] = m

		default:
			return nil, pgerr.New(pgerr.InternalInvariant, fmt.Sprintf("unknown node kind %d", n.Kind))
		}

		for _, e := range successors[id] {
			var list *pulselist.List
			if n.Kind == Matrix {
				list = outByTarget[id][e.To]
			} else {
				list = outSingle[id]
			}
			if list == nil {
				continue
			}
			inbox[e.To] = append(inbox[e.To], inboxEntry{sourceID: id, slot: e.FromSlot, list: list})
		}
	}

	terminal := make(map[int]*pulselist.List)
	hasOutgoing := make(map[int]bool)
	for _, e := range g.Edges {
		hasOutgoing[e.From] = true
	}
	for id := range g.Nodes {
		if hasOutgoing[id] {
			continue
		}
		if g.Nodes[id].Kind == Matrix {
			continue // matrix terminals are read per-output-node, not per-matrix-node
		}
		terminal[id] = outSingle[id]
	}
	return terminal, nil
}

func mergeInbox(entries []inboxEntry, timeTol, ampTol float64) *pulselist.List {
	lists := make([]*pulselist.List, 0, len(entries))
	for _, e := range entries {
		if e.list != nil {
			lists = append(lists, e.list)
		}
	}
	return pulselist.Sum(lists, timeTol, ampTol)
}

// runMatrix sums each input column by the source node id that produced it,
// then computes output row r as sum_j M[r][j] * column_j.
func runMatrix(n *Node, entries []inboxEntry, timeTol, ampTol float64) ([]*pulselist.List, error) {
	columns := make(map[int][]*pulselist.List)
	for _, e := range entries {
		columns[e.sourceID] = append(columns[e.sourceID], e.list)
	}
	colLists := make([]*pulselist.List, len(n.MatrixInputs))
	for j, srcID := range n.MatrixInputs {
		colLists[j] = pulselist.Sum(columns[srcID], timeTol, ampTol)
	}

	rows := make([]*pulselist.List, len(n.Matrix))
	for r, weights := range n.Matrix {
		if len(weights) != len(colLists) {
			return nil, fmt.Errorf("matrix row %d has %d weights, want %d", r, len(weights), len(colLists))
		}
		scaled := make([]*pulselist.List, len(colLists))
		for j, w := range weights {
			scaled[j] = colLists[j].Scaled(w)
		}
		rows[r] = pulselist.Sum(scaled, timeTol, ampTol)
	}
	return rows, nil
}

func topoSort(g *Graph) ([]int, error) {
	n := len(g.Nodes)
	indeg := make([]int, n)
	adj := make([][]int, n)
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		indeg[e.To]++
	}
	var queue []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	var order []int
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, to := range adj[id] {
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	if len(order) != n {
		return nil, pgerr.New(pgerr.LayoutError, "post-process graph contains a cycle")
	}
	return order, nil
}
