package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/notevault/notevault/internal/model"
	"github.com/notevault/notevault/internal/secret"
	"github.com/notevault/notevault/internal/service"
	"github.com/notevault/notevault/internal/store"
)

func newTestAuth(t *testing.T) (*service.AuthService, *service.IssuedKey) {
	t.Helper()
	st, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := service.NewAuthService(st, secret.New(bcrypt.MinCost))
	issued, err := svc.IssueKey(context.Background(), service.IssueKeyParams{
		Name:  "test",
		Scope: []string{"read"},
		Email: "mw@example.com",
	})
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	return svc, issued
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMissingHeader(t *testing.T) {
	svc, _ := newTestAuth(t)
	var called bool
	h := Authenticate(svc)(okHandler(t, &called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/notes", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if called {
		t.Error("next handler was reached without a credential")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	// The rejection uses the standard error envelope.
	var resp model.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error envelope: %v; body = %s", err, rr.Body.String())
	}
	if resp.Error == "" {
		t.Error("expected an error message in the envelope")
	}
}

func TestAuthenticateInvalidCredential(t *testing.T) {
	svc, _ := newTestAuth(t)
	var called bool
	h := Authenticate(svc)(okHandler(t, &called))

	req := httptest.NewRequest("GET", "/notes", nil)
	req.Header.Set(HeaderAPIKey, "0.bogus")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if called {
		t.Error("next handler was reached with a bad credential")
	}
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	svc, issued := newTestAuth(t)

	var principal *service.Principal
	h := Authenticate(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/notes", nil)
	req.Header.Set(HeaderAPIKey, issued.Plaintext)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}
	if principal == nil {
		t.Fatal("no principal attached to context")
	}
	if principal.AccountID != issued.Key.AccountID {
		t.Errorf("account = %q, want %q", principal.AccountID, issued.Key.AccountID)
	}
}

func TestRequireScope(t *testing.T) {
	tests := []struct {
		name     string
		scope    []string
		required string
		want     int
	}{
		{"granted", []string{"read"}, model.ScopeRead, http.StatusOK},
		{"denied", []string{"read"}, model.ScopeWrite, http.StatusForbidden},
		{"wildcard", []string{"*"}, model.ScopeWrite, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			h := RequireScope(tt.required)(okHandler(t, &called))

			req := httptest.NewRequest("GET", "/notes", nil)
			ctx := context.WithValue(req.Context(), authPrincipalKey, &service.Principal{
				AccountID: "acct",
				Scope:     tt.scope,
			})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req.WithContext(ctx))

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("called = %v with status %d", called, rr.Code)
			}
		})
	}
}

func TestRequireScopeWithoutPrincipal(t *testing.T) {
	var called bool
	h := RequireScope(model.ScopeRead)(okHandler(t, &called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/notes", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if called {
		t.Error("next handler was reached without a principal")
	}
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	header := rr.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("no X-Request-ID header set")
	}
	if fromCtx != header {
		t.Errorf("context ID %q != header ID %q", fromCtx, header)
	}
}

func TestRequestIDHonorsClientHeader(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want client value preserved", got)
	}
}

// Authenticated traffic is tagged with the credential's cleartext prefix;
// the token half of the credential must never reach the log.
func TestLoggerTagsKeyPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/notes", nil)
	req.Header.Set(HeaderAPIKey, "1700000000.super-secret-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	out := buf.String()
	if !strings.Contains(out, "key_prefix=1700000000") {
		t.Errorf("log line missing key_prefix: %s", out)
	}
	if strings.Contains(out, "super-secret-token") {
		t.Errorf("log line leaks the credential token: %s", out)
	}
}

func TestLoggerOmitsPrefixWithoutCredential(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

	if strings.Contains(buf.String(), "key_prefix") {
		t.Errorf("unauthenticated request tagged with key_prefix: %s", buf.String())
	}
}

func TestRateLimitByIP(t *testing.T) {
	var called int
	h := RateLimitByIP(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("POST", "/api_key/new", nil))
		want := http.StatusOK
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Errorf("request %d: status = %d, want %d", i+1, rr.Code, want)
		}
	}
	if called != 2 {
		t.Errorf("handler ran %d times, want 2", called)
	}
}
