// Package clients selects the external translation provider.
package clients

import (
	"context"
	"fmt"

	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/infrastructure/clients/gemini"
	"github.com/feyti/medreport/internal/infrastructure/clients/openai"
	"github.com/feyti/medreport/pkg/config"
)

// Translation provider names accepted in TRANSLATION_PROVIDER
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// NewTranslationProvider builds the configured provider. It returns nil for
// "none", in which case every translation is served from the fallback table.
func NewTranslationProvider(ctx context.Context, cfg *config.Config) (providers.TranslationProvider, error) {
	switch cfg.Translation.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderGemini:
		client, err := gemini.NewClient(ctx, &cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOpenAI:
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q (want %s, %s or %s)",
			cfg.Translation.Provider, ProviderGemini, ProviderOpenAI, ProviderNone)
	}
}
