// Package jobregistry tracks asynchronous clone jobs in memory: creation,
// progress, terminal transitions, listing, deletion, and retention. The
// registry is the single owner of job state; request handlers and the
// background dispatcher share it by handle and every access is
// serialized by its mutex, so a status update can never race a
// concurrent deletion of the same job.
package jobregistry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is a mutex-guarded job table with an insertion-order index so
// listings are deterministic (Go maps are unordered).
type Registry struct {
	mu    sync.Mutex
	jobs  map[string]*JobRecord
	order []string
	now   func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*JobRecord),
		now:  time.Now,
	}
}

// Create registers a new queued job and returns a copy of its record.
func (r *Registry) Create(language string, textLength int) JobRecord {
	rec := &JobRecord{
		JobID:      uuid.New().String(),
		Status:     JobStateQueued,
		Progress:   0,
		Message:    "job queued for processing",
		CreatedAt:  r.now().UTC(),
		Language:   language,
		TextLength: textLength,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[rec.JobID] = rec
	r.order = append(r.order, rec.JobID)
	return *rec
}

// Get returns a copy of the job record, or false when absent.
func (r *Registry) Get(jobID string) (JobRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[jobID]
	if !ok {
		return JobRecord{}, false
	}
	return *rec, true
}

// SetProgress updates a job's progress and message. Progress past 0.1
// promotes a queued job to processing. Updates to terminal jobs are
// ignored, preserving the forward-only status invariant.
func (r *Registry) SetProgress(jobID string, progress float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[jobID]
	if !ok || rec.Status.Terminal() {
		return
	}

	rec.Progress = progress
	rec.Message = message
	if progress > 0.1 && rec.Status == JobStateQueued {
		rec.Status = JobStateProcessing
	}
}

// Start marks a queued job as processing.
func (r *Registry) Start(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[jobID]
	if !ok || rec.Status != JobStateQueued {
		return
	}
	rec.Status = JobStateProcessing
	rec.Message = "starting voice cloning"
}

// Complete transitions a job to completed with its artifact references.
// A second terminal transition is a programming error.
func (r *Registry) Complete(jobID, audioURL, artifactPath, message string) error {
	return r.finish(jobID, func(rec *JobRecord) {
		rec.Status = JobStateCompleted
		rec.Progress = 1.0
		rec.AudioURL = audioURL
		rec.ArtifactPath = artifactPath
		rec.Message = message
	})
}

// Fail transitions a job to failed with the failure reason.
func (r *Registry) Fail(jobID, reason string) error {
	return r.finish(jobID, func(rec *JobRecord) {
		rec.Status = JobStateFailed
		rec.Progress = 0
		rec.Error = reason
		rec.Message = "voice cloning failed"
	})
}

func (r *Registry) finish(jobID string, mutate func(*JobRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("job %s already in terminal state %s", jobID, rec.Status)
	}

	mutate(rec)
	completed := r.now().UTC()
	rec.CompletedAt = &completed
	return nil
}

// Delete removes a job and returns its final record so the caller can
// remove the associated artifact. Returns false when the job is unknown,
// making repeat deletions observable as not-found.
func (r *Registry) Delete(jobID string) (JobRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[jobID]
	if !ok {
		return JobRecord{}, false
	}

	delete(r.jobs, jobID)
	r.removeFromOrder(jobID)
	return *rec, true
}

// List returns copies of the most recently created jobs, newest first,
// capped at limit (0 means all).
func (r *Registry) List(limit int) []JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobRecord, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if rec, ok := r.jobs[r.order[i]]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// CountByState tallies jobs per state for health reporting.
func (r *Registry) CountByState() map[JobState]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[JobState]int, 4)
	for _, rec := range r.jobs {
		counts[rec.Status]++
	}
	return counts
}

// removeFromOrder drops jobID from the insertion-order index. Callers
// hold the mutex.
func (r *Registry) removeFromOrder(jobID string) {
	for i, id := range r.order {
		if id == jobID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
