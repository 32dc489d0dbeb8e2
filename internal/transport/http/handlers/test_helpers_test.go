package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/nippou-service/internal/application/auth"
	"github.com/baechuer/nippou-service/internal/application/report"
	"github.com/baechuer/nippou-service/internal/infrastructure/memory"
	"github.com/baechuer/nippou-service/internal/infrastructure/security"
)

type sentMail struct {
	To, Subject, Body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// lastToken pulls the token query parameter out of the newest mail's link.
func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no mail sent")
	}
	body := m.sent[len(m.sent)-1].Body
	i := strings.Index(body, "http")
	if i < 0 {
		t.Fatalf("no link in mail body %q", body)
	}
	link := strings.TrimSpace(body[i:])
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	tok := u.Query().Get("token")
	if tok == "" {
		t.Fatalf("no token in link %q", link)
	}
	return tok
}

type testEnv struct {
	mux     http.Handler
	users   *memory.UserRepo
	reports *memory.ReportRepo
	mailer  *captureMailer
	authSvc *auth.Service
}

func newTestEnv(t *testing.T, enforceOwnership bool) *testEnv {
	t.Helper()

	users := memory.NewUserRepo()
	reports := memory.NewReportRepo()
	mailer := &captureMailer{}

	authSvc := auth.NewService(
		users,
		security.NewBcryptHasher(4),
		security.NewJWTSigner("test-secret", "nippou"),
		mailer,
		auth.Config{
			SessionTTL:    24 * time.Hour,
			VerifyURLBase: "http://localhost:8080/api/auth/verify?token=",
			ResetURLBase:  "http://localhost:3000/reset-password?token=",
		},
	)
	reportSvc := report.NewService(reports, report.Config{EnforceOwnership: enforceOwnership})

	ah := NewAuthHandler(authSvc, false)
	rh := NewReportHandler(reportSvc, authSvc)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", ah.Register)
		r.Get("/verify", ah.Verify)
		r.Post("/login", ah.Login)
		r.Get("/me", ah.Me)
		r.Post("/logout", ah.Logout)
		r.Post("/forgot-password", ah.ForgotPassword)
		r.Get("/verify-reset-token", ah.VerifyResetToken)
		r.Post("/reset-password", ah.ResetPassword)
	})
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/", rh.List)
		r.Post("/", rh.Create)
		r.Put("/{id}", rh.Update)
		r.Delete("/{id}", rh.Delete)
	})

	return &testEnv{mux: r, users: users, reports: reports, mailer: mailer, authSvc: authSvc}
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func mustReadJSON(t *testing.T, r io.Reader, out any) {
	t.Helper()
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode json failed: %v; body=%s", err, string(raw))
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = strings.NewReader(s)
		} else {
			rd = mustJSONBody(t, body)
		}
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

// readCookie finds cookie by name from response headers.
func readCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error"`
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env errorEnvelope
	mustReadJSON(t, rr.Body, &env)
	return env.Error.Code
}

// registerAndLogin runs the full sign-up flow and returns the session cookie.
func (e *testEnv) registerAndLogin(t *testing.T, email, password, name, team string) *http.Cookie {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "password": password, "name": name, "team": team,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}
	rr = e.do(t, http.MethodGet, "/api/auth/verify?token="+url.QueryEscape(e.mailer.lastToken(t)), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rr.Code, rr.Body.String())
	}
	rr = e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	c := readCookie(rr, security.AuthCookieName)
	if c == nil {
		t.Fatalf("no session cookie")
	}
	return c
}

var errMailDown = errors.New("smtp: connection refused")
