package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/pkg/httpx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// ProxyPrefixes maps each audience's pass-through prefix to the upstream
// prefix it stands for.
var ProxyPrefixes = map[domain.Audience][2]string{
	domain.AudienceStaff:     {"/api/staff/", "/api/"},
	domain.AudienceCandidate: {"/api/candidate/", "/api/candidate-portal/"},
}

type tokenKey struct{}

// APIProxy forwards authenticated API calls of one audience to the backend
// with the session's bearer token. An upstream 401 expires the session.
type APIProxy struct {
	Audience   domain.Audience
	Workspaces *service.Workspaces
	Upstream   *url.URL
	Transport  http.RoundTripper

	proxy *httputil.ReverseProxy
}

// NewAPIProxy builds the reverse proxy for aud.
func NewAPIProxy(aud domain.Audience, ws *service.Workspaces, upstream *url.URL, transport http.RoundTripper) *APIProxy {
	p := &APIProxy{
		Audience:   aud,
		Workspaces: ws,
		Upstream:   upstream,
		Transport:  transport,
	}
	prefixes := ProxyPrefixes[aud]

	p.proxy = &httputil.ReverseProxy{
		Transport: transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			rest := strings.TrimPrefix(pr.In.URL.Path, prefixes[0])
			pr.Out.URL.Path = strings.TrimSuffix(upstream.Path, "/") + prefixes[1] + rest
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()

			// Browser credentials never reach the backend; the session token
			// replaces them.
			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			if token, ok := pr.In.Context().Value(tokenKey{}).(string); ok {
				pr.Out.Header.Set("Authorization", "Bearer "+token)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("Set-Cookie")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slogx.FromContext(r.Context()).Warn("upstream api call failed", "error", err)
			httpx.WriteError(w, http.StatusBadGateway, string(domain.KindUnreachable), domain.UserMessage(domain.ErrUnreachable))
		},
	}
	return p
}

func (p *APIProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := contextFor(w, r, p.Workspaces, p.Audience)
	if c == nil {
		return
	}

	err := c.Do(r.Context(), func(ctx context.Context, token string) error {
		sw := &statusWriter{ResponseWriter: w}
		p.proxy.ServeHTTP(sw, r.WithContext(context.WithValue(ctx, tokenKey{}, token)))
		if sw.status == http.StatusUnauthorized {
			return domain.ErrUnauthenticated
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoSession):
		httpx.WriteError(w, http.StatusUnauthorized, string(domain.KindUnauthenticated), domain.UserMessage(err))
	case errors.Is(err, domain.ErrUnauthenticated):
		// The upstream 401 was already relayed.
		slogx.FromContext(r.Context()).Info("upstream rejected session token")
	default:
		httpx.WriteError(w, http.StatusServiceUnavailable, string(domain.KindUnreachable), domain.UserMessage(err))
	}
}

// statusWriter records the status the proxy relayed.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
