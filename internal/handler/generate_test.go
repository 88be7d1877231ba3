package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnan/pagesmith/internal/handler"
	"github.com/adnan/pagesmith/internal/repository/sqlite"
	"github.com/adnan/pagesmith/internal/service"
)

// stubGenerator is a canned upstream for end-to-end handler tests.
type stubGenerator struct {
	ReturnText string
	ReturnErr  error
}

func (s *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	if s.ReturnErr != nil {
		return "", s.ReturnErr
	}
	return s.ReturnText, nil
}

// newTestHandler wires the real services over a real SQLite ledger, with only
// the upstream stubbed out.
func newTestHandler(t *testing.T, gen *stubGenerator) (*handler.GenerateHandler, *service.CreditService) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	credits := service.NewCreditService(db, logger, 0)
	generation := service.NewGenerationService(credits, gen, logger, service.GenerationConfig{})

	return handler.NewGenerateHandler(generation, credits, logger), credits
}

func postGenerate(t *testing.T, h *handler.GenerateHandler, body string) (*httptest.ResponseRecorder, handler.Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.HandleGenerate(rr, req)

	var resp handler.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return rr, resp
}

func TestHandleGenerate_EndToEnd(t *testing.T) {
	gen := &stubGenerator{ReturnText: "```html\n<html></html>\n```"}
	h, credits := newTestHandler(t, gen)

	// Give the user exactly one credit: 5 default, burn 4.
	_, err := credits.UseCredit(context.Background(), "u1", 4)
	require.NoError(t, err)

	// First call succeeds and spends the last credit.
	rr, resp := postGenerate(t, h, `{"user_id":"u1","prompt":"hello page"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<html></html>", resp.Output)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 0, *resp.Credits)
	assert.Empty(t, resp.Error)

	// Second immediate call is refused, balance reported, upstream untouched.
	rr, resp = postGenerate(t, h, `{"user_id":"u1","prompt":"hello page"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Not enough credits", resp.Error)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 0, *resp.Credits)
	assert.Empty(t, resp.Output)
}

func TestHandleGenerate_GetCreditsNewUser(t *testing.T) {
	h, _ := newTestHandler(t, &stubGenerator{})

	rr, resp := postGenerate(t, h, `{"user_id":"brand-new","action":"getCredits"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 5, *resp.Credits)
}

func TestHandleGenerate_UseCreditAction(t *testing.T) {
	h, _ := newTestHandler(t, &stubGenerator{})

	rr, resp := postGenerate(t, h, `{"user_id":"u1","action":"useCredit"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 4, *resp.Credits)

	// Drain the rest, then the next use fails as a handled outcome.
	rr, resp = postGenerate(t, h, `{"user_id":"u1","action":"useCredit","amount":4}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 0, *resp.Credits)

	rr, resp = postGenerate(t, h, `{"user_id":"u1","action":"useCredit"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Not enough credits", resp.Error)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 0, *resp.Credits)
}

func TestHandleGenerate_FollowUpTurn(t *testing.T) {
	gen := &stubGenerator{ReturnText: "```css\nbody {}\n```"}
	h, _ := newTestHandler(t, gen)

	_, resp := postGenerate(t, h,
		`{"user_id":"u1","prompt":"add styles","previousProject":"<html></html>"}`)

	assert.Equal(t, "<html></html>\n\nbody {}", resp.Output)
}

func TestHandleGenerate_UpstreamFailure(t *testing.T) {
	gen := &stubGenerator{ReturnErr: errors.New("connection refused")}
	h, credits := newTestHandler(t, gen)

	rr, resp := postGenerate(t, h, `{"user_id":"u1","prompt":"hi"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Generation failed", resp.Error)
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 4, *resp.Credits, "debit-before-call: the failed attempt still costs a credit")

	balance, err := credits.GetBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, balance)
}

func TestHandleGenerate_Validation(t *testing.T) {
	h, _ := newTestHandler(t, &stubGenerator{ReturnText: "x"})

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{name: "missing user_id", body: `{"prompt":"hi"}`, wantError: "user_id is required"},
		{name: "missing prompt", body: `{"user_id":"u1"}`, wantError: "prompt is required"},
		{name: "malformed JSON", body: `{"user_id":`, wantError: "request body must be valid JSON"},
		{name: "unknown action", body: `{"user_id":"u1","action":"transmogrify"}`, wantError: "unknown action: transmogrify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := postGenerate(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

// =========================================================================
// STANDALONE CREDIT ROUTES
// =========================================================================

func newTestCreditsHandler(t *testing.T) *handler.CreditsHandler {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return handler.NewCreditsHandler(service.NewCreditService(db, logger, 0), logger)
}

func TestHandleGetCredits(t *testing.T) {
	h := newTestCreditsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/credits?user_id=u1", nil)
	rr := httptest.NewRecorder()
	h.HandleGetCredits(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handler.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 5, *resp.Credits)
}

func TestHandleGetCredits_MissingUserID(t *testing.T) {
	h := newTestCreditsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/credits", nil)
	rr := httptest.NewRecorder()
	h.HandleGetCredits(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleUseCredit(t *testing.T) {
	h := newTestCreditsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/credits/use",
		bytes.NewBufferString(`{"user_id":"u1","amount":2}`))
	rr := httptest.NewRecorder()
	h.HandleUseCredit(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handler.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Credits)
	assert.Equal(t, 3, *resp.Credits)
}
