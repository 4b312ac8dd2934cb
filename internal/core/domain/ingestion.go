package domain

import "time"

// IngestState is a step of the per-document ingestion state machine.
// Fetched, Chunked, Embedded, Upserted, Done; Failed is reachable from any step.
type IngestState string

// Ingestion states.
const (
	IngestStatePending  IngestState = "pending"
	IngestStateFetched  IngestState = "fetched"
	IngestStateChunked  IngestState = "chunked"
	IngestStateEmbedded IngestState = "embedded"
	IngestStateUpserted IngestState = "upserted"
	IngestStateDone     IngestState = "done"
	IngestStateFailed   IngestState = "failed"
)

// IsTerminal reports whether no further transitions follow.
func (s IngestState) IsTerminal() bool {
	return s == IngestStateDone || s == IngestStateFailed
}

// String returns the string representation.
func (s IngestState) String() string {
	return string(s)
}

// IngestStatus is the latest known progress of a document's ingestion.
// A namespace must not be treated as queryable until State is Done.
type IngestStatus struct {
	DocumentKey string      `json:"documentKey"`
	Namespace   string      `json:"namespace"`
	State       IngestState `json:"state"`
	Chunks      int         `json:"chunks"`
	Batches     int         `json:"batches"`
	FailedBatch int         `json:"failedBatch"`
	Vectors     int         `json:"vectors"`
	Error       string      `json:"error,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Ready reports whether the document can be queried.
func (s IngestStatus) Ready() bool {
	return s.State == IngestStateDone
}
