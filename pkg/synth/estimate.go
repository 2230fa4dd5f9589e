package synth

import "strings"

// Speaking-rate constants in words per second, per the model's observed
// pacing (~150 wpm for English, ~140 wpm elsewhere).
const (
	englishWordsPerSecond = 2.5
	defaultWordsPerSecond = 2.33
)

// Default real-time factors used before any sample has been observed.
const (
	defaultRTFCPU         = 3.0
	defaultRTFAccelerated = 0.5
)

// EstimateAudioDuration predicts the produced audio length in seconds
// from the word count of text and the target language code.
func EstimateAudioDuration(text, languageCode string) float64 {
	words := len(strings.Fields(text))

	wps := defaultWordsPerSecond
	if languageCode == "en" {
		wps = englishWordsPerSecond
	}
	return float64(words) / wps
}

// EstimateProcessingTime predicts synthesis wall-clock seconds for the
// estimated audio duration, preferring the learned rolling RTF average
// and falling back to a device-dependent default on first run.
func EstimateProcessingTime(audioSeconds float64, tracker *RTFTracker, device string) (seconds float64, learned bool) {
	if tracker != nil {
		if avg, ok := tracker.Average(); ok {
			return audioSeconds * avg, true
		}
	}

	rtf := defaultRTFAccelerated
	if device == "" || device == "cpu" {
		rtf = defaultRTFCPU
	}
	return audioSeconds * rtf, false
}
