// Package languages lists the languages offered for translation and resolves
// user input (a code or a name) to a catalogue entry.
package languages

import "strings"

// Language is a catalogue entry. Name is what goes into prompts.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var catalogue = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "zh-CN", Name: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "Chinese (Traditional)"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ru", Name: "Russian"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "nl", Name: "Dutch"},
	{Code: "sv", Name: "Swedish"},
	{Code: "pl", Name: "Polish"},
	{Code: "tr", Name: "Turkish"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "th", Name: "Thai"},
	{Code: "id", Name: "Indonesian"},
}

// All returns a copy of the catalogue in display order.
func All() []Language {
	out := make([]Language, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a language by code or name, case-insensitively.
func Lookup(codeOrName string) (Language, bool) {
	needle := strings.TrimSpace(codeOrName)
	if needle == "" {
		return Language{}, false
	}
	for _, l := range catalogue {
		if strings.EqualFold(l.Code, needle) || strings.EqualFold(l.Name, needle) {
			return l, true
		}
	}
	return Language{}, false
}

// Name returns the catalogue name for codeOrName. Unknown input is returned
// trimmed but otherwise unchanged so that free-form names still reach the
// prompt.
func Name(codeOrName string) string {
	if l, ok := Lookup(codeOrName); ok {
		return l.Name
	}
	return strings.TrimSpace(codeOrName)
}
