package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/adnan/pagesmith/internal/apperror"
	"github.com/adnan/pagesmith/internal/service"
)

// GenerateHandler serves the single generation endpoint. One POST body covers
// three actions — generate (default), getCredits, useCredit — mirroring a
// frontend that talks to one URL for everything credit-related.
type GenerateHandler struct {
	generation *service.GenerationService
	credits    *service.CreditService
	logger     *slog.Logger
}

// GenerateRequest is the request body for POST /api/generate.
type GenerateRequest struct {
	UserID          string `json:"user_id"`
	Action          string `json:"action"`          // "generate" (default) | "getCredits" | "useCredit"
	Prompt          string `json:"prompt"`          // required for generate
	PreviousProject string `json:"previousProject"` // optional, omitted on first turn
	Amount          int    `json:"amount"`          // useCredit only, default 1
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generation *service.GenerationService, credits *service.CreditService, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generation: generation,
		credits:    credits,
		logger:     logger,
	}
}

// HandleGenerate processes one request through the action dispatch.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid generate request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}

	switch req.Action {
	case "getCredits":
		balance, err := h.credits.GetBalance(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Credits: &balance})

	case "useCredit":
		amount := req.Amount
		if amount == 0 {
			amount = 1
		}
		remaining, err := h.credits.UseCredit(r.Context(), req.UserID, amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Credits: &remaining})

	case "", "generate":
		out, err := h.generation.Generate(r.Context(), service.GenerateInput{
			UserID:          req.UserID,
			Prompt:          req.Prompt,
			PreviousProject: req.PreviousProject,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Output: out.Output, Credits: &out.Credits})

	default:
		writeError(w, apperror.ValidationFailed("action", "unknown action: "+req.Action))
	}
}
