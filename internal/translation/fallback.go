// Package translation translates report text through an external provider and
// degrades to a small bilingual dictionary whenever the provider cannot answer.
package translation

import "strings"

// Supported target languages.
const (
	LangFrench  = "fr"
	LangSwahili = "sw"
)

var languageNames = map[string]string{
	LangFrench:  "French",
	LangSwahili: "Swahili",
}

// fallbackDictionary covers the outcome and severity vocabulary the
// extraction pipeline emits.
var fallbackDictionary = map[string]map[string]string{
	LangFrench: {
		"recovered": "rétabli",
		"ongoing":   "en cours",
		"fatal":     "fatal",
		"severe":    "sévère",
		"moderate":  "modéré",
		"mild":      "léger",
	},
	LangSwahili: {
		"recovered": "umepona",
		"ongoing":   "inaendelea",
		"fatal":     "kuwa na hatari",
		"severe":    "kali",
		"moderate":  "wastani",
		"mild":      "nyepesi",
	},
}

// SupportedLanguage reports whether lang is an accepted target code.
func SupportedLanguage(lang string) bool {
	_, ok := languageNames[lang]
	return ok
}

// LanguageName returns the display name for a supported code, or "" otherwise.
func LanguageName(lang string) string {
	return languageNames[lang]
}

// Fallback lowercases text and replaces whole words found in the dictionary
// for lang. Other words pass through; whitespace collapses to single spaces.
// An unsupported lang leaves every word unchanged.
func Fallback(text, lang string) string {
	table := fallbackDictionary[lang]
	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		if translated, ok := table[w]; ok {
			words[i] = translated
		}
	}
	return strings.Join(words, " ")
}
