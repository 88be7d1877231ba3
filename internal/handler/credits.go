package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/adnan/pagesmith/internal/apperror"
	"github.com/adnan/pagesmith/internal/service"
)

// CreditsHandler exposes the ledger on its own routes, for clients that want
// to check or spend credits without touching the generation endpoint.
type CreditsHandler struct {
	credits *service.CreditService
	logger  *slog.Logger
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(credits *service.CreditService, logger *slog.Logger) *CreditsHandler {
	return &CreditsHandler{
		credits: credits,
		logger:  logger,
	}
}

// HandleGetCredits serves GET /api/credits?user_id=...
// Unknown users are initialised with the default balance, so this never 404s.
func (h *CreditsHandler) HandleGetCredits(w http.ResponseWriter, r *http.Request) {
	balance, err := h.credits.GetBalance(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Credits: &balance})
}

// useCreditRequest is the request body for POST /api/credits/use.
type useCreditRequest struct {
	UserID string `json:"user_id"`
	Amount int    `json:"amount"` // default 1
}

// HandleUseCredit serves POST /api/credits/use — an explicit debit with no
// generation attached.
func (h *CreditsHandler) HandleUseCredit(w http.ResponseWriter, r *http.Request) {
	var req useCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid use-credit request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return
	}

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
}
