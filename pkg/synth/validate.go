package synth

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Input limits for clone requests.
const (
	MaxTextLength = 2000
	MinTextLength = 3

	// MaxReferenceAudioBytes caps uploaded reference recordings.
	MaxReferenceAudioBytes = 10 * 1024 * 1024
)

// audioExtensions lists the reference-audio formats the engine accepts.
var audioExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".flac": {},
	".ogg":  {},
	".m4a":  {},
}

// ValidationError reports a rejected input with a human-readable reason.
// Each failure mode carries a distinct message so callers can surface it
// verbatim.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateText checks clone text against the length constraints. Limits
// are in characters, not bytes, so multibyte scripts get the full 2000.
// The returned string is the trimmed text that should be synthesized.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", newValidationError("text", "please enter text to synthesize")
	}
	length := utf8.RuneCountInString(trimmed)
	if length > MaxTextLength {
		return "", newValidationError("text",
			"text too long (%d chars), maximum is %d characters", length, MaxTextLength)
	}
	if length < MinTextLength {
		return "", newValidationError("text",
			"text too short, please enter at least %d characters", MinTextLength)
	}
	return trimmed, nil
}

// ValidateReferenceAudio checks the reference recording path. Only the
// extension is inspected here; content sniffing is the upload handler's
// concern.
func ValidateReferenceAudio(path string) error {
	if strings.TrimSpace(path) == "" {
		return newValidationError("audio", "please upload a voice reference audio file")
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := audioExtensions[ext]; !ok {
		return newValidationError("audio",
			"unsupported audio format %q, use WAV, MP3, FLAC, OGG or M4A", ext)
	}
	return nil
}

// ValidateLanguage checks the language name against the supported catalog
// and returns the engine language code.
func ValidateLanguage(name string) (string, error) {
	code, ok := LanguageCode(name)
	if !ok {
		return "", newValidationError("language",
			"unsupported language %q, use one of: %s", name, strings.Join(LanguageNames(), ", "))
	}
	return code, nil
}

// AllowedAudioExtension reports whether ext (with or without a leading
// dot) is an accepted reference-audio extension.
func AllowedAudioExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := audioExtensions[ext]
	return ok
}
