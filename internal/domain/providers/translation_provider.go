package providers

import "context"

// TranslationProvider translates text into a target language code ("fr", "sw").
// Implementations return an error rather than an empty translation.
type TranslationProvider interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)

	// Name identifies the provider in logs and metrics
	Name() string
}
