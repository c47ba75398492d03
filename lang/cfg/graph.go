package cfg

import (
	"github.com/mna/adeptc/internal/arena"
	"github.com/mna/adeptc/lang/asg"
)

// Graph is one function body's CFG: an append-only arena of Nodes plus
// its Start index.
type Graph struct {
	nodes *arena.Arena[Node, Node]
	Start NodeIdx
}

// NewGraph returns an empty Graph with no Start node yet; the builder
// calls Push for the Start node first and records its index itself.
func NewGraph() *Graph {
	return &Graph{nodes: arena.New[Node, Node]()}
}

// Push appends n and returns its stable index.
func (g *Graph) Push(n Node) NodeIdx { return g.nodes.Push(n) }

// Get dereferences ix.
func (g *Graph) Get(ix NodeIdx) Node { return g.nodes.Get(ix) }

// Set overwrites the node at ix, used to back-patch a node's successor
// slot once the node it points to has itself been pushed (the builder
// walks statements in order but a node's `next` is only known after its
// successor is built).
func (g *Graph) Set(ix NodeIdx, n Node) { g.nodes.Set(ix, n) }

// Len returns the number of nodes pushed so far.
func (g *Graph) Len() int { return g.nodes.Len() }

// All iterates every (index, node) pair in push order, so a whole-graph
// pass (e.g. lang/ir's basic-block leader computation) doesn't need to
// walk the graph's own successor edges to enumerate its nodes.
func (g *Graph) All(yield func(NodeIdx, Node) bool) { g.nodes.All(yield) }

// FuncBody pairs a resolved FuncDecl with its built CFG. Spec section 3
// describes a Func's body as a CFG, but that association is not a
// field on asg.FuncDecl itself (see the lang/asg DESIGN.md entry): cfg
// depends on asg for Type, so the dependency would cycle the other way.
// The body-resolution job constructs one FuncBody per function once its
// CFG is built.
type FuncBody struct {
	Decl  asg.FuncIdx
	Graph *Graph
}

// Cursor is a position in a Graph under construction: either "at
// from-node, about to fill successor slot index" or Terminated, once a
// Return/Unreachable/Computed node has been reached (spec section 3:
// "a cursor is (from-node, edge-index) or 'terminated'").
type Cursor struct {
	From    NodeIdx
	Slot    int
	IsValid bool
}

// Terminated is the zero Cursor value with IsValid left false.
var Terminated = Cursor{}

// AtStart returns a Cursor positioned right after start, ready to have
// its single successor slot (slot 0) filled in.
func AtStart(start NodeIdx) Cursor {
	return Cursor{From: start, Slot: 0, IsValid: true}
}

// Done reports whether the cursor has reached a terminating node.
func (c Cursor) Done() bool { return !c.IsValid }
