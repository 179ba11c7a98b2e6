// Package lineage defines the column dependency tree contract between a
// pipeline engine and lineage consumers.
//
// The engine (or any other graph builder) produces one tree per output
// column. Each hop records the column reference it selects and the SQL
// fragment it selects from; intermediate selection steps are preserved so
// every transformation hop stays visible. A node without downstream entries
// is a source reference: the farthest upstream column reachable on that
// path.
package lineage

import (
	"errors"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// ErrNoLineage is returned by builders when no dependency tree is recorded
// for the requested column.
var ErrNoLineage = errors.New("no lineage recorded for column")

// Node is one hop in a column dependency tree.
type Node struct {
	// Name is the column reference this hop selects, possibly qualified
	// (e.g. "orders.amount").
	Name string
	// Expression is the SQL fragment the reference was resolved against.
	// For source nodes this names the upstream table.
	Expression string
	// Downstream are the hops this node feeds into further selection
	// steps. Empty for source references.
	Downstream []*Node
}

// Walk visits n and every node below it in depth-first order. The walk
// stops early when fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, d := range n.Downstream {
		if !d.Walk(fn) {
			return false
		}
	}
	return true
}

// Builder produces the dependency tree for one output column of a model.
type Builder interface {
	// Column returns the dependency tree for the named output column.
	// Implementations return ErrNoLineage when the column has no
	// recorded tree.
	Column(name string, model *core.Model) (*Node, error)
}

// StaticBuilder serves prebuilt trees keyed by model name and column name.
// It suits engines that compute per-column graphs ahead of time, and test
// setups.
type StaticBuilder struct {
	trees map[string]map[string]*Node
}

// NewStaticBuilder creates an empty StaticBuilder.
func NewStaticBuilder() *StaticBuilder {
	return &StaticBuilder{trees: make(map[string]map[string]*Node)}
}

// Add records the dependency tree for a model column, replacing any
// previously recorded tree.
func (b *StaticBuilder) Add(model, column string, root *Node) {
	cols, ok := b.trees[model]
	if !ok {
		cols = make(map[string]*Node)
		b.trees[model] = cols
	}
	cols[column] = root
}

// Column implements Builder.
func (b *StaticBuilder) Column(name string, model *core.Model) (*Node, error) {
	if model == nil {
		return nil, ErrNoLineage
	}
	root, ok := b.trees[model.Name][name]
	if !ok {
		return nil, ErrNoLineage
	}
	return root, nil
}
