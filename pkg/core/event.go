package core

import "time"

// EventType classifies a lineage event.
type EventType string

// Event type constants.
const (
	EventStart    EventType = "START"
	EventComplete EventType = "COMPLETE"
	EventFail     EventType = "FAIL"
)

// JobName is the namespace-qualified job identity an event refers to.
type JobName struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Dataset references a table in the catalog's namespace.
type Dataset struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// FQN returns the fully qualified dataset name.
func (d Dataset) FQN() string {
	return d.Namespace + "." + d.Name
}

// ColumnLineage maps one or more source column FQNs to a single target
// column FQN.
type ColumnLineage struct {
	FromColumns []string `json:"fromColumns"`
	ToColumn    string   `json:"toColumn"`
}

// Facets carries optional job metadata attached to an event.
type Facets struct {
	ProcessingType string `json:"processingType,omitempty"`
	Integration    string `json:"integration,omitempty"`
	JobType        string `json:"jobType,omitempty"`
	Query          string `json:"query,omitempty"`
	SourceURL      string `json:"sourceUrl,omitempty"`
	EngineName     string `json:"engineName,omitempty"`
	EngineVersion  string `json:"engineVersion,omitempty"`
	AdapterVersion string `json:"adapterVersion,omitempty"`
}

// Event is one lineage event describing a run of a job. Events are built
// once and never mutated after construction.
type Event struct {
	Type      EventType `json:"eventType"`
	EventTime time.Time `json:"eventTime"`
	RunID     string    `json:"runId"`
	Job       JobName   `json:"job"`
	Facets    Facets    `json:"facets"`
	// DurationMS is set on COMPLETE events.
	DurationMS int64 `json:"durationMs,omitempty"`
	// Error is set on FAIL events.
	Error         string          `json:"error,omitempty"`
	Output        *Dataset        `json:"output,omitempty"`
	Inputs        []Dataset       `json:"inputs,omitempty"`
	ColumnLineage []ColumnLineage `json:"columnLineage,omitempty"`
	Producer      string          `json:"producer"`
}
