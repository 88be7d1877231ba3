package handler

// Response helpers: one JSON shape for everything the API returns.
//
// Every response body — success or failure — uses the same three optional
// fields {credits, output, error}, so the frontend parses one shape
// regardless of outcome. Failures carry the caller's last known balance
// whenever the ledger could tell us, letting the client reconcile its
// displayed balance without a follow-up call.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adnan/pagesmith/internal/apperror"
)

// Response is the single body shape for the generation API.
type Response struct {
	Credits *int   `json:"credits,omitempty"` // pointer: 0 is a real balance, absent means unknown
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone at this point — log is all we can do.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto the wire.
//
// Status mapping:
//   - business outcomes the API contract treats as handled — insufficient
//     credits, a failed or empty generation — answer 200 with the error in
//     the body; the request was processed, the outcome just wasn't code
//   - caller mistakes (validation) answer 400
//   - the ledger being unreachable, and anything unclassified, answer 500
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error: generic 500, no internal details on the wire.
		writeJSON(w, http.StatusInternalServerError, Response{Error: "An internal error occurred"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrInsufficientCredits),
		errors.Is(err, apperror.ErrUpstream),
		errors.Is(err, apperror.ErrEmptyGeneration):
		status = http.StatusOK
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrLedgerUnavailable):
		status = http.StatusInternalServerError
	}

	resp := Response{Error: appErr.Message}
	if appErr.HasCredits {
		credits := appErr.Credits
		resp.Credits = &credits
	}
	writeJSON(w, status, resp)
}
