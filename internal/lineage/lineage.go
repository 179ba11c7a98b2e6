// Package lineage derives column-level provenance for emitted events.
//
// Given the dependency tree of an output column, it walks to the tree's
// source references, resolves each reference back to an upstream table, and
// keeps the references that belong to a candidate parent table. Matching is
// exact and unnormalized: either the bare table name or the full dotted
// path must equal the candidate string. That coarse match avoids requiring
// catalog-aware resolution at notification time.
package lineage

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	tree "github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/sqlref"
)

// SourceColumns returns the source-column FQNs that flow into outputColumn
// from the candidate upstream table. Each FQN has the form
// namespace.parent.column.
//
// An error means the column could not be traced at all (no tree, builder
// failure); callers skip the column and keep going. A traced column with no
// references from the parent returns an empty slice and no error.
func SourceColumns(outputColumn string, model *core.Model, parent, namespace string, b tree.Builder) ([]string, error) {
	if b == nil {
		return nil, fmt.Errorf("no lineage builder configured")
	}

	root, err := b.Column(outputColumn, model)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", outputColumn, err)
	}
	if root == nil {
		return nil, fmt.Errorf("column %s: empty dependency tree", outputColumn)
	}

	var from []string
	root.Walk(func(n *tree.Node) bool {
		// Intermediate hops have downstream nodes; only source
		// references resolve to tables.
		if len(n.Downstream) > 0 {
			return true
		}

		ref, ok := sqlref.FindTable(n.Expression)
		if !ok {
			return true
		}
		if ref.Name() != parent && ref.String() != parent {
			return true
		}

		col := sqlref.ColumnName(n.Name)
		if col == "" {
			return true
		}

		from = append(from, namespace+"."+parent+"."+col)
		return true
	})

	return from, nil
}
