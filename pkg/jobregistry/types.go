package jobregistry

import "time"

// JobState is the lifecycle state of a clone job.
//
// NOTE: These values appear in API responses and are part of the stable
// wire contract. Transitions are forward-only:
// queued -> processing -> completed|failed.
type JobState string

const (
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether s admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// JobRecord is the bookkeeping entry for one asynchronous clone job.
//
// The schema is designed for backward-compatible extension (additive
// fields). Records are mutated only through Registry methods; once a job
// reaches a terminal state its progress and output/error fields are
// frozen until deletion.
type JobRecord struct {
	JobID    string   `json:"job_id"`
	Status   JobState `json:"status"`
	Progress float64  `json:"progress"`
	Message  string   `json:"message,omitempty"`
	AudioURL string   `json:"audio_url,omitempty"`
	Error    string   `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Language   string `json:"language"`
	TextLength int    `json:"text_length"`

	// ArtifactPath is the on-disk artifact location, kept server-side so
	// deletion can remove the file. Not exposed in API responses.
	ArtifactPath string `json:"-"`
}
