// Package datasets maps pipeline jobs onto event datasets.
//
// A job's materialized view becomes the output dataset, its declared
// parents become the input datasets, and per-column dependency trees
// become column-level lineage edges. All dataset names are qualified
// with the configured namespace.
package datasets

import (
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	tree "github.com/leapstack-labs/leaplineage/pkg/lineage"
)

// Output returns the dataset the job materializes.
func Output(job *core.Job, namespace string) core.Dataset {
	return core.Dataset{Namespace: namespace, Name: job.View.String()}
}

// OutputFQN returns the fully qualified name of the job's output dataset.
func OutputFQN(job *core.Job, namespace string) string {
	return Output(job, namespace).FQN()
}

// Inputs returns one dataset per declared parent, in declaration order.
//
// When the parent is itself a known job, its materialized view name is
// used so the dataset matches what that job emits as its output.
// Unknown parents (external tables, seeds) keep their reference name.
func Inputs(job *core.Job, namespace string, known map[string]*core.Job) []core.Dataset {
	if len(job.Parents) == 0 {
		return nil
	}
	inputs := make([]core.Dataset, 0, len(job.Parents))
	for _, p := range job.Parents {
		name := p.Name
		if parent, ok := known[p.Name]; ok {
			name = parent.View.String()
		}
		inputs = append(inputs, core.Dataset{Namespace: namespace, Name: name})
	}
	return inputs
}

// ColumnLineage derives the column-level edges between the job's output
// and one upstream table. Columns whose dependency tree cannot be traced
// are skipped; a column with no references from the parent produces no
// edge. The result follows the model's column declaration order.
func ColumnLineage(job *core.Job, parentName, namespace string, b tree.Builder) []core.ColumnLineage {
	if job == nil || !job.IsModel || job.Model == nil || b == nil {
		return nil
	}

	out := job.View.String()
	var edges []core.ColumnLineage
	for _, col := range job.Model.Columns {
		from, err := lineage.SourceColumns(col.Name, job.Model, parentName, namespace, b)
		if err != nil || len(from) == 0 {
			continue
		}
		edges = append(edges, core.ColumnLineage{
			FromColumns: from,
			ToColumn:    namespace + "." + out + "." + col.Name,
		})
	}
	return edges
}
