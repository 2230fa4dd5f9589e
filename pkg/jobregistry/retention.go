package jobregistry

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Yass5002/Lyrebird/pkg/outputs"
)

// Retention defaults.
const (
	DefaultJobTTL  = time.Hour
	DefaultMaxJobs = 100
)

// SweepResult summarizes one retention pass.
type SweepResult struct {
	RemovedExpired      int `json:"removed_expired"`
	RemovedOverCapacity int `json:"removed_over_capacity"`
	Remaining           int `json:"remaining"`
}

// Retention bounds the registry by age and count. Only terminal jobs are
// ever evicted; in-flight work is untouchable except by explicit
// deletion.
type Retention struct {
	registry *Registry
	ttl      time.Duration
	maxJobs  int
	log      *zap.Logger
}

// NewRetention builds a retention manager. Non-positive ttl or maxJobs
// fall back to the defaults.
func NewRetention(registry *Registry, ttl time.Duration, maxJobs int, log *zap.Logger) *Retention {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	return &Retention{registry: registry, ttl: ttl, maxJobs: maxJobs, log: log}
}

// Sweep evicts terminal jobs older than the TTL, then evicts the oldest
// terminal jobs (by completion time ascending) until the registry is at
// or under capacity. Evicted jobs' artifacts are removed best-effort.
//
// Invoked opportunistically before accepting new async work and by the
// admin cleanup endpoint.
func (ret *Retention) Sweep() SweepResult {
	var result SweepResult

	now := time.Now().UTC()
	terminal := make([]JobRecord, 0)
	for _, rec := range ret.registry.List(0) {
		if !rec.Status.Terminal() || rec.CompletedAt == nil {
			continue
		}
		if now.Sub(*rec.CompletedAt) > ret.ttl {
			ret.evict(rec)
			result.RemovedExpired++
			continue
		}
		terminal = append(terminal, rec)
	}

	if over := ret.registry.Len() - ret.maxJobs; over > 0 {
		sort.Slice(terminal, func(i, j int) bool {
			return terminal[i].CompletedAt.Before(*terminal[j].CompletedAt)
		})
		for _, rec := range terminal {
			if ret.registry.Len() <= ret.maxJobs {
				break
			}
			ret.evict(rec)
			result.RemovedOverCapacity++
		}
	}

	result.Remaining = ret.registry.Len()
	if result.RemovedExpired > 0 || result.RemovedOverCapacity > 0 {
		ret.log.Info("retention sweep",
			zap.Int("removed_expired", result.RemovedExpired),
			zap.Int("removed_over_capacity", result.RemovedOverCapacity),
			zap.Int("remaining", result.Remaining))
	}
	return result
}

func (ret *Retention) evict(rec JobRecord) {
	removed, ok := ret.registry.Delete(rec.JobID)
	if !ok {
		return
	}
	if removed.ArtifactPath != "" {
		if err := outputs.Remove(removed.ArtifactPath); err != nil {
			ret.log.Warn("failed to remove evicted job artifact",
				zap.String("job_id", removed.JobID),
				zap.String("path", removed.ArtifactPath),
				zap.Error(err))
		}
	}
}
