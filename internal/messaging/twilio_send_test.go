package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

func newTestSender(url string) *TwilioSender {
	s := NewTwilioSender("AC123", "secret", "whatsapp:+18095550000", logging.Discard())
	s.baseURL = url
	return s
}

func TestTwilioSenderPostsForm(t *testing.T) {
	var to, from, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "secret" {
			t.Errorf("missing basic auth")
		}
		if !strings.HasSuffix(r.URL.Path, "/Accounts/AC123/Messages.json") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = r.ParseForm()
		to, from, body = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).Send(context.Background(), Reply{RecipientID: "8091112222", Text: "Nuevo cliente en espera"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if to != "whatsapp:+18091112222" || from != "whatsapp:+18095550000" || body != "Nuevo cliente en espera" {
		t.Errorf("unexpected form to=%q from=%q body=%q", to, from, body)
	}
}

func TestTwilioSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`))
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).Send(context.Background(), Reply{RecipientID: "whatsapp:+1", Text: "hola"})
	if err == nil || !strings.Contains(err.Error(), "code 21211") {
		t.Fatalf("expected twilio error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := newTestSender(srv.URL).Send(context.Background(), Reply{RecipientID: "8091112222", Text: "hola"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestTwilioSenderValidatesInput(t *testing.T) {
	if err := NewTwilioSender("", "", "", nil).Send(context.Background(), Reply{RecipientID: "1", Text: "x"}); err == nil {
		t.Error("expected credentials error")
	}
	if err := newTestSender("http://unused").Send(context.Background(), Reply{RecipientID: "8091112222"}); err == nil {
		t.Error("expected body error")
	}
}
