package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/operator"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

type failingPauses struct{}

func (failingPauses) ForcePause(context.Context, string, bool) (string, error) {
	return "", errors.New("redis down")
}

func (failingPauses) ListPaused(context.Context) ([]string, error) {
	return nil, errors.New("redis down")
}

func newTestRouter(t *testing.T, pauses PauseController) (http.Handler, *bookings.MemoryRepository) {
	t.Helper()
	repo := bookings.NewMemoryRepository()
	h := NewAdminHandler(pauses, bookings.NewService(repo, logging.Discard()), logging.Discard())
	r := chi.NewRouter()
	r.Get("/admin/paused", h.ListPaused)
	r.Post("/admin/sessions/{phone}/pause", h.Pause)
	r.Post("/admin/sessions/{phone}/resume", h.Resume)
	r.Get("/admin/bookings/{code}", h.GetBooking)
	r.Patch("/admin/bookings/{code}/status", h.UpdateBookingStatus)
	return r, repo
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestAdminPauseResumeList(t *testing.T) {
	store := session.NewMemoryStore()
	h, _ := newTestRouter(t, operator.NewGate(store, nil, logging.Discard()))

	rec := do(t, h, http.MethodPost, "/admin/sessions/18095551234/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"8095551234","paused":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/admin/paused", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paused":["8095551234"]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/admin/sessions/8095551234/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/admin/paused", "")
	assert.JSONEq(t, `{"paused":[]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/admin/sessions/123/pause", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminPauseBackendFailure(t *testing.T) {
	h, _ := newTestRouter(t, failingPauses{})

	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodPost, "/admin/sessions/8095551234/pause", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/admin/paused", "").Code)
}

func TestAdminBookingLookupAndStatus(t *testing.T) {
	h, repo := newTestRouter(t, operator.NewGate(session.NewMemoryStore(), nil, logging.Discard()))
	require.NoError(t, repo.Insert(context.Background(), &bookings.Booking{
		ConfirmationNumber: "AC40686909Z3HM",
		CustomerPhone:      "8095551234",
		Status:             bookings.StatusPending,
	}))

	rec := do(t, h, http.MethodGet, "/admin/bookings/40686909z3hm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = do(t, h, http.MethodPatch, "/admin/bookings/AC40686909Z3HM/status", `{"status":"in-progress"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b, err := repo.FindByConfirmation(context.Background(), "AC40686909Z3HM")
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusInProgress, b.Status)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/admin/bookings/AC40686909Z3HM/status", `{"status":"lost"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/admin/bookings/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/admin/bookings/ACAAAAAAAAAAAA", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPatch, "/admin/bookings/ACAAAAAAAAAAAA/status", `{"status":"completed"}`).Code)
}
