package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/gateway"
	portalhttp "github.com/aussiebroadwan/arbeit/internal/portal/http"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/arbeit/pkg/arbeitsdk"
	"github.com/aussiebroadwan/arbeit/pkg/jwtx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// backend fakes the identity service and the business API behind it.
type backend struct {
	mu        sync.Mutex
	passwords map[string]string // email -> password
	rotated   map[string]bool
	revoked   map[string]bool
	unhealthy atomic.Bool

	lastAPI *http.Request
}

func newBackend() *backend {
	return &backend{
		passwords: map[string]string{
			"pat@example.com":  "secret1",
			"temp@example.com": "temp123",
			"cam@example.com":  "secret1",
		},
		rotated: map[string]bool{},
		revoked: map[string]bool{},
	}
}

func (b *backend) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) user(email string) arbeitsdk.User {
	role := "recruiter"
	if strings.HasPrefix(email, "cam") {
		role = ""
	}
	return arbeitsdk.User{
		ID:                 "u-" + strings.SplitN(email, "@", 2)[0],
		Email:              email,
		Name:               "Test User",
		Role:               role,
		MustChangePassword: email == "temp@example.com" && !b.rotated[email],
	}
}

// emailOf maps a bearer token back to its owner.
func (b *backend) emailOf(r *http.Request) (string, bool) {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer tok-")
	if !ok || b.revoked[tok] {
		return "", false
	}
	return tok + "@example.com", true
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.URL.Path {
	case arbeitsdk.HealthPath:
		if b.unhealthy.Load() {
			b.reply(w, http.StatusServiceUnavailable, map[string]string{"detail": "down"})
			return
		}
		b.reply(w, http.StatusOK, map[string]string{"status": "ok"})

	case "/api/auth/login", "/api/candidate-portal/login":
		var req arbeitsdk.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if pw, ok := b.passwords[req.Email]; !ok || pw != req.Password {
			b.reply(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})
			return
		}
		u := b.user(req.Email)
		b.reply(w, http.StatusOK, arbeitsdk.AuthResponse{
			AccessToken:        "tok-" + strings.SplitN(req.Email, "@", 2)[0],
			TokenType:          "bearer",
			User:               u,
			MustChangePassword: u.MustChangePassword,
		})

	case "/api/auth/change-password", "/api/candidate-portal/change-password":
		email, ok := b.emailOf(r)
		if !ok {
			b.reply(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		var req arbeitsdk.ChangePasswordRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if b.passwords[email] != req.CurrentPassword {
			b.reply(w, http.StatusBadRequest, map[string]string{"detail": "Current password is incorrect"})
			return
		}
		b.passwords[email] = req.NewPassword
		b.rotated[email] = true
		b.reply(w, http.StatusOK, arbeitsdk.AuthResponse{User: b.user(email)})

	case "/api/auth/me", "/api/candidate-portal/me":
		email, ok := b.emailOf(r)
		if !ok {
			b.reply(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		b.reply(w, http.StatusOK, b.user(email))

	case "/api/auth/logout", "/api/candidate-portal/logout":
		w.WriteHeader(http.StatusNoContent)

	case "/api/candidate-portal/register":
		var req arbeitsdk.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, taken := b.passwords[req.Email]; taken {
			b.reply(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
			return
		}
		b.passwords[req.Email] = req.Password
		b.reply(w, http.StatusCreated, map[string]string{"status": "created"})

	default:
		// Business API.
		b.lastAPI = r.Clone(r.Context())
		if _, ok := b.emailOf(r); !ok {
			b.reply(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		w.Header().Set("Set-Cookie", "backend=1")
		b.reply(w, http.StatusOK, map[string]string{"path": r.URL.Path, "query": r.URL.RawQuery})
	}
}

// revoke makes the backend reject name's token from now on.
func (b *backend) revoke(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[name] = true
}

func (b *backend) lastAPIRequest() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAPI
}

type harness struct {
	t       *testing.T
	backend *backend
	server  *httptest.Server
	client  *http.Client
	ws      *service.Workspaces
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	be := newBackend()
	upstream := httptest.NewServer(be)
	t.Cleanup(upstream.Close)

	st, err := sqlite.NewStore("file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	logger := slogx.Discard()
	gw := gateway.New(arbeitsdk.NewSDKClient(upstream.URL))

	ws := service.NewWorkspaces(service.WorkspacesConfig{
		Verifier: gw,
		Records:  st.Sessions(),
		Options:  identity.Options{ProbeOnRestore: true, Logger: logger},
		Logger:   logger,
	})
	t.Cleanup(ws.Close)

	reg, err := service.NewRegistrationService(gw, logger)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.Add("k1", bytes.Repeat([]byte{7}, 32)))
	cookies := &portalhttp.ClientCookies{
		Signer:   jwtx.NewSigner(keys),
		Verifier: jwtx.NewVerifier(keys, jwtx.VerifyOptions{Issuer: "arbeit-test"}),
		Issuer:   "arbeit-test",
	}

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	router := portalhttp.NewRouter(portalhttp.RouterConfig{
		BuildVersion: "test",
		RestoreWait:  2 * time.Second,
		Upstream:     upstreamURL,
	}, cookies, st, gw, logger)
	router.Workspaces = ws
	router.RegistrationService = reg
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t:       t,
		backend: be,
		server:  srv,
		ws:      ws,
		client: &http.Client{
			Jar:     jar,
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) do(method, path string, body any) *http.Response {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (h *harness) login(aud, email, password string) portalhttp.LoginResponse {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/v1/"+aud+"/login", portalhttp.LoginRequest{Email: email, Password: password})
	return decode[portalhttp.LoginResponse](h.t, resp)
}

func (h *harness) session(aud string) portalhttp.SessionResponse {
	h.t.Helper()
	resp := h.do(http.MethodGet, "/v1/"+aud+"/session", nil)
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	return decode[portalhttp.SessionResponse](h.t, resp)
}
