package synth

import "sort"

// SupportedLanguages maps human-readable language names to the language
// codes the synthesis engine expects.
//
// NOTE: These names are part of the public API contract; requests carry
// the name (e.g. "English"), not the code.
var SupportedLanguages = map[string]string{
	"English":    "en",
	"Spanish":    "es",
	"French":     "fr",
	"German":     "de",
	"Italian":    "it",
	"Portuguese": "pt",
	"Polish":     "pl",
	"Turkish":    "tr",
	"Russian":    "ru",
	"Dutch":      "nl",
	"Czech":      "cs",
	"Arabic":     "ar",
	"Chinese":    "zh-cn",
	"Japanese":   "ja",
	"Hungarian":  "hu",
	"Korean":     "ko",
	"Hindi":      "hi",
}

// LanguageNames returns the supported language names in sorted order.
func LanguageNames() []string {
	names := make([]string, 0, len(SupportedLanguages))
	for name := range SupportedLanguages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LanguageCode resolves a language name to its engine code.
func LanguageCode(name string) (string, bool) {
	code, ok := SupportedLanguages[name]
	return code, ok
}
