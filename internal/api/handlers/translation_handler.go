package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/feyti/medreport/internal/translation"
)

// Translator translates free text into a supported language
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (*translation.Result, error)
}

// TranslationHandler handles POST /translate
type TranslationHandler struct {
	translator Translator
}

// NewTranslationHandler creates a new translation handler
func NewTranslationHandler(translator Translator) *TranslationHandler {
	return &TranslationHandler{translator: translator}
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	// TargetLanguage is accepted as an alias of TargetLang.
	TargetLanguage string `json:"target_language"`
}

// Translate handles POST /translate
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, defaultMaxUploadBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target := req.TargetLang
	if target == "" {
		target = req.TargetLanguage
	}
	if target == "" {
		target = translation.LangFrench
	}

	result, err := h.translator.Translate(r.Context(), req.Text, target)
	if err != nil {
		respondWithAppError(w, r, err, "Translation error")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
