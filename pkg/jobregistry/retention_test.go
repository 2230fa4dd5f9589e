package jobregistry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// completeAt finishes a job with its CompletedAt pinned to ts.
func completeAt(t *testing.T, r *Registry, jobID, artifact string, ts time.Time) {
	t.Helper()
	saved := r.now
	r.now = func() time.Time { return ts }
	require.NoError(t, r.Complete(jobID, "", artifact, "done"))
	r.now = saved
}

func TestRetentionSweepExpiresByTTL(t *testing.T) {
	r := NewRegistry()
	ret := NewRetention(r, time.Hour, 100, zap.NewNop())

	expired := r.Create("English", 1)
	completeAt(t, r, expired.JobID, "", time.Now().Add(-2*time.Hour))

	fresh := r.Create("English", 2)
	completeAt(t, r, fresh.JobID, "", time.Now())

	result := ret.Sweep()
	assert.Equal(t, 1, result.RemovedExpired)
	assert.Zero(t, result.RemovedOverCapacity)
	assert.Equal(t, 1, result.Remaining)

	_, ok := r.Get(expired.JobID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.JobID)
	assert.True(t, ok)
}

func TestRetentionSweepEvictsOldestOverCapacity(t *testing.T) {
	r := NewRegistry()
	ret := NewRetention(r, time.Hour, 2, zap.NewNop())

	now := time.Now()
	oldest := r.Create("English", 1)
	completeAt(t, r, oldest.JobID, "", now.Add(-30*time.Minute))
	middle := r.Create("English", 2)
	completeAt(t, r, middle.JobID, "", now.Add(-20*time.Minute))
	newest := r.Create("English", 3)
	completeAt(t, r, newest.JobID, "", now.Add(-10*time.Minute))

	result := ret.Sweep()
	assert.Zero(t, result.RemovedExpired)
	assert.Equal(t, 1, result.RemovedOverCapacity)
	assert.Equal(t, 2, result.Remaining)

	_, ok := r.Get(oldest.JobID)
	assert.False(t, ok, "oldest completed job is evicted first")
	_, ok = r.Get(newest.JobID)
	assert.True(t, ok)
}

func TestRetentionSweepNeverEvictsInFlightJobs(t *testing.T) {
	r := NewRegistry()
	ret := NewRetention(r, time.Hour, 1, zap.NewNop())

	queued := r.Create("English", 1)
	processing := r.Create("English", 2)
	r.Start(processing.JobID)

	result := ret.Sweep()
	assert.Zero(t, result.RemovedExpired)
	assert.Zero(t, result.RemovedOverCapacity)
	assert.Equal(t, 2, result.Remaining, "registry may exceed capacity while jobs are live")

	_, ok := r.Get(queued.JobID)
	assert.True(t, ok)
}

func TestRetentionSweepRemovesArtifacts(t *testing.T) {
	r := NewRegistry()
	ret := NewRetention(r, time.Hour, 100, zap.NewNop())

	artifact := filepath.Join(t.TempDir(), "clone.wav")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0o600))

	rec := r.Create("English", 1)
	completeAt(t, r, rec.JobID, artifact, time.Now().Add(-2*time.Hour))

	result := ret.Sweep()
	assert.Equal(t, 1, result.RemovedExpired)
	assert.NoFileExists(t, artifact)
}

func TestRetentionDefaults(t *testing.T) {
	ret := NewRetention(NewRegistry(), 0, 0, zap.NewNop())
	assert.Equal(t, DefaultJobTTL, ret.ttl)
	assert.Equal(t, DefaultMaxJobs, ret.maxJobs)
}
