package core

import (
	"strings"
	"time"
)

// TableName identifies a physical table as catalog.schema.table.
// Catalog and Schema are optional; Table is required.
type TableName struct {
	Catalog string
	Schema  string
	Table   string
}

// String returns the dot-joined name, dropping empty components.
func (t TableName) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Catalog, t.Schema, t.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// ParseTableName parses a dot-joined name into its components.
// One segment is a bare table, two are schema.table, three are
// catalog.schema.table. Parsing the result of String returns an
// equal TableName for any name without empty middle components.
func ParseTableName(s string) TableName {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		return TableName{Table: parts[0]}
	case 2:
		return TableName{Schema: parts[0], Table: parts[1]}
	default:
		return TableName{
			Catalog: parts[0],
			Schema:  parts[1],
			Table:   strings.Join(parts[2:], "."),
		}
	}
}

// Job is one executable transformation step in the host pipeline.
type Job struct {
	// Name is the unique qualified name of the job, used as the
	// correlation key for lifecycle notifications.
	Name string
	// View is the physical table the job materializes into.
	View TableName
	// IsModel is true for data-producing model jobs. Non-model jobs
	// (seeds, standalone audits) never carry column lineage.
	IsModel bool
	// Model holds the SQL definition for model jobs, nil otherwise.
	Model *Model
	// Parents are the upstream jobs this job reads from.
	Parents []JobRef
}

// JobRef identifies an upstream job by its declared name. The name may be
// bare or dot-qualified depending on how the model references it.
type JobRef struct {
	Name string
}

// Model carries the SQL definition behind a model job.
type Model struct {
	Name string
	// Columns are the declared output columns in definition order.
	Columns []ColumnDef
	// Query is the rendered SQL text, empty when not resolvable.
	Query string
	// FilePath is the absolute path of the source file, empty when the
	// model was not loaded from disk.
	FilePath string
}

// ColumnDef is one declared output column of a model.
type ColumnDef struct {
	Name string
	Type string
}

// Interval is the time range a job evaluation covered.
type Interval struct {
	Start time.Time
	End   time.Time
}
