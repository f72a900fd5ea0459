package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/infrastructure/observability"
	apperrors "github.com/feyti/medreport/pkg/errors"
)

// Fallback reasons reported to metrics.
const (
	reasonDisabled      = "disabled"
	reasonProviderError = "provider_error"
	reasonTimeout       = "timeout"
	reasonCircuitOpen   = "circuit_open"
	reasonEmpty         = "empty_response"
)

var errEmptyTranslation = errors.New("provider returned an empty translation")

// FallbackRecorder counts fallback translations.
type FallbackRecorder interface {
	RecordTranslationFallback(ctx context.Context, targetLang, reason string)
}

// Result is the outcome of a translation request.
type Result struct {
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	TargetLanguage string `json:"target_language"`
	// Provider names who produced TranslatedText; "fallback" for the dictionary.
	Provider string `json:"-"`
}

// Config bounds provider calls.
type Config struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Facade validates requests, calls the provider once and falls back to the
// dictionary on any provider failure. It never returns a provider error.
type Facade struct {
	provider providers.TranslationProvider
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	recorder FallbackRecorder
}

// NewFacade creates a facade. A nil provider serves every request from the
// fallback dictionary; a nil recorder disables fallback metrics.
func NewFacade(provider providers.TranslationProvider, cfg Config, recorder FallbackRecorder) *Facade {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	name := "translation"
	if provider != nil {
		name = "translation-" + provider.Name()
	}
	failures := cfg.BreakerFailures

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Translation circuit breaker changed state")
		},
	})

	return &Facade{
		provider: provider,
		breaker:  breaker,
		timeout:  cfg.Timeout,
		recorder: recorder,
	}
}

// Validate rejects empty text and unsupported target languages.
func Validate(text, targetLang string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("Text to translate is required")
	}
	if !SupportedLanguage(targetLang) {
		return apperrors.NewValidationError("Supported languages: fr (French), sw (Swahili)")
	}
	return nil
}

// Translate translates text into targetLang. Only validation errors are
// returned; every provider failure degrades to Fallback.
func (f *Facade) Translate(ctx context.Context, text, targetLang string) (*Result, error) {
	if err := Validate(text, targetLang); err != nil {
		return nil, err
	}

	result := &Result{
		OriginalText:   text,
		TargetLanguage: LanguageName(targetLang),
	}

	if f.provider == nil {
		return f.fallback(ctx, result, text, targetLang, reasonDisabled, nil), nil
	}

	ctx, span := observability.StartSpan(ctx, "translation.Translate")
	defer span.End()

	out, err := f.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		translated, err := f.provider.Translate(callCtx, text, targetLang)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(translated) == "" {
			return nil, errEmptyTranslation
		}
		return translated, nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return f.fallback(ctx, result, text, targetLang, fallbackReason(err), err), nil
	}

	result.TranslatedText = strings.TrimSpace(out.(string))
	result.Provider = f.provider.Name()
	return result, nil
}

func (f *Facade) fallback(ctx context.Context, result *Result, text, targetLang, reason string, cause error) *Result {
	logger := observability.LoggerFromContext(ctx)
	event := logger.Warn()
	if reason == reasonDisabled {
		event = logger.Debug()
	}
	event.Err(cause).
		Str("target_language", targetLang).
		Str("reason", reason).
		Msg("Serving translation from fallback dictionary")

	if f.recorder != nil {
		f.recorder.RecordTranslationFallback(ctx, targetLang, reason)
	}

	result.TranslatedText = Fallback(text, targetLang)
	result.Provider = "fallback"
	return result
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return reasonCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, errEmptyTranslation):
		return reasonEmpty
	default:
		return reasonProviderError
	}
}

// String describes the facade for startup logs.
func (f *Facade) String() string {
	if f.provider == nil {
		return "translation(fallback only)"
	}
	return fmt.Sprintf("translation(%s, timeout=%s)", f.provider.Name(), f.timeout)
}
