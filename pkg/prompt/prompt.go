// Package prompt turns translation and spellcheck intents into the single
// prompt string sent to the model. User text is interpolated verbatim.
package prompt

import "fmt"

const (
	translationTemplate = "Translate the following text from %s to %s. Only output the translation, no introductory text:\n\n%s"

	spellcheckTemplate = "You are a careful spellchecker and grammar corrector.\n" +
		"%s\n" +
		"Correct spelling, grammar, and punctuation mistakes while preserving the original meaning, tone, and formatting (including line breaks).\n" +
		"Do not translate the text.\n" +
		"If the text is already correct, return it unchanged.\n" +
		"Only output the corrected text with no commentary.\n\n" +
		"Text:\n%s"

	detectLanguageLine = "Detect the input language."
)

// BuildTranslationPrompt asks the model to translate text from sourceLang to
// targetLang and output nothing but the translation.
func BuildTranslationPrompt(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(translationTemplate, sourceLang, targetLang, text)
}

// BuildSpellcheckPrompt asks the model to correct text without translating
// it. An empty languageHint tells the model to detect the language.
func BuildSpellcheckPrompt(text, languageHint string) string {
	languageLine := detectLanguageLine
	if languageHint != "" {
		languageLine = fmt.Sprintf("The input language is primarily %s.", languageHint)
	}
	return fmt.Sprintf(spellcheckTemplate, languageLine, text)
}
