package synth

import "sync"

// rtfHistorySize bounds the number of retained real-time-factor samples.
const rtfHistorySize = 5

// RTFTracker maintains a rolling window of observed real-time factors
// (processing time divided by produced audio duration). The average is
// used only for ETA-quality progress messaging; it never affects
// correctness.
//
// RTFTracker is safe for concurrent use. Updates from the background
// synthesis task and reads from request handlers are serialized by a
// mutex.
type RTFTracker struct {
	mu      sync.Mutex
	history []float64
}

// NewRTFTracker returns an empty tracker.
func NewRTFTracker() *RTFTracker {
	return &RTFTracker{history: make([]float64, 0, rtfHistorySize)}
}

// Observe records a processing-time/audio-duration sample. A non-positive
// audio duration falls back to a ratio of 2.0, matching the behavior the
// estimator was tuned against.
func (t *RTFTracker) Observe(processingSeconds, audioSeconds float64) float64 {
	rtf := 2.0
	if audioSeconds > 0 {
		rtf = processingSeconds / audioSeconds
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, rtf)
	if len(t.history) > rtfHistorySize {
		t.history = t.history[1:]
	}
	return rtf
}

// Average returns the arithmetic mean of the retained samples. The second
// return value is false when no samples have been observed yet.
func (t *RTFTracker) Average() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return 0, false
	}

	var sum float64
	for _, v := range t.history {
		sum += v
	}
	return sum / float64(len(t.history)), true
}

// Len returns the number of retained samples.
func (t *RTFTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}
