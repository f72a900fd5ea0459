package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feyti/medreport/pkg/config"
)

func TestNewTranslationProvider(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		provider, err := NewTranslationProvider(context.Background(), &config.Config{
			Translation: config.TranslationConfig{Provider: ProviderNone},
		})
		require.NoError(t, err)
		assert.Nil(t, provider)
	})

	t.Run("openai", func(t *testing.T) {
		provider, err := NewTranslationProvider(context.Background(), &config.Config{
			Translation: config.TranslationConfig{Provider: ProviderOpenAI},
			OpenAI:      config.OpenAIConfig{APIKey: "sk-test"},
		})
		require.NoError(t, err)
		assert.Equal(t, "openai", provider.Name())
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewTranslationProvider(context.Background(), &config.Config{
			Translation: config.TranslationConfig{Provider: ProviderGemini},
		})
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewTranslationProvider(context.Background(), &config.Config{
			Translation: config.TranslationConfig{Provider: "deepl"},
		})
		assert.ErrorContains(t, err, "deepl")
	})
}
