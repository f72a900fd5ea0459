package openai

import (
	"fmt"
	"strings"
)

const translationSystemPrompt = `You translate medical report text for patients and clinicians. Translate the user's text into the requested language. Keep drug names, numbers and units unchanged. Return ONLY the translated text with no commentary, quotes or Markdown.`

var targetLanguageNames = map[string]string{
	"fr": "French",
	"sw": "Swahili",
}

func buildTranslationUserPrompt(text, targetLang string) string {
	language := targetLanguageNames[targetLang]
	if language == "" {
		language = targetLang
	}
	return fmt.Sprintf("Target language: %s\nText:\n%s", language, text)
}

// cleanOutput strips code fences some models wrap answers in.
func cleanOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		if i := strings.IndexByte(cleaned, '\n'); i >= 0 && !strings.Contains(cleaned[:i], " ") {
			cleaned = cleaned[i+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}
