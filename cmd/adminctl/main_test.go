package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpmiddleware "github.com/devdanielvaldez/autoclinic-bot/internal/http/middleware"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		args       []string
		wantMethod string
		wantPath   string
		wantErr    bool
	}{
		{args: []string{"paused"}, wantMethod: http.MethodGet, wantPath: "/admin/paused"},
		{args: []string{"pause", "8095551234"}, wantMethod: http.MethodPost, wantPath: "/admin/sessions/8095551234/pause"},
		{args: []string{"resume", "8095551234"}, wantMethod: http.MethodPost, wantPath: "/admin/sessions/8095551234/resume"},
		{args: []string{"booking", "AC40686909Z3HM"}, wantMethod: http.MethodGet, wantPath: "/admin/bookings/AC40686909Z3HM"},
		{args: []string{"status", "AC40686909Z3HM", "completed"}, wantMethod: http.MethodPatch, wantPath: "/admin/bookings/AC40686909Z3HM/status"},
		{args: nil, wantErr: true},
		{args: []string{"pause"}, wantErr: true},
		{args: []string{"status", "AC40686909Z3HM"}, wantErr: true},
		{args: []string{"purge"}, wantErr: true},
	}

	for _, tt := range tests {
		req, err := buildRequest("http://bot.local/", tt.args)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%v: expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tt.args, err)
		}
		if req.Method != tt.wantMethod || req.URL.Path != tt.wantPath {
			t.Fatalf("%v: got %s %s", tt.args, req.Method, req.URL.Path)
		}
	}
}

func TestAdminTokenPassesMiddleware(t *testing.T) {
	token, err := adminToken("s3cret", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var reached bool
	h := httpmiddleware.AdminJWT("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context())
		reached = ok && claims.Subject == "adminctl"
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/paused", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !reached {
		t.Fatalf("expected token to be accepted, got %d", rr.Code)
	}
}
