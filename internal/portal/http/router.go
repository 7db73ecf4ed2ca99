package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/guard"
	"github.com/aussiebroadwan/arbeit/internal/portal/identity"
	"github.com/aussiebroadwan/arbeit/internal/portal/service"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
	"github.com/aussiebroadwan/arbeit/pkg/httpx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"

	_ "github.com/aussiebroadwan/arbeit/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 64 << 10

// RouterConfig carries the settings handlers need.
type RouterConfig struct {
	BuildVersion string
	RestoreWait  time.Duration
	MaxBodyBytes int64

	// Upstream is the backend base URL authenticated API calls are proxied to.
	// Nil disables the pass-through.
	Upstream  *url.URL
	Transport http.RoundTripper
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cfg       RouterConfig
	startTime time.Time
	logger    *slog.Logger

	store    store.Store
	upstream Pinger
	cookies  *ClientCookies
	guard    *guard.Guard

	Workspaces          *service.Workspaces
	RegistrationService *service.RegistrationService
}

func NewRouter(
	cfg RouterConfig,
	cookies *ClientCookies,
	st store.Store,
	upstream Pinger,
	logger *slog.Logger,
) *Router {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		startTime: time.Now(),
		logger:    logger,
		store:     st,
		upstream:  upstream,
		cookies:   cookies,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.guard = &guard.Guard{
		Lookup:      r.lookup,
		RestoreWait: r.cfg.RestoreWait,
	}

	for _, aud := range domain.Audiences() {
		r.registerSession(aud)
		r.registerProxy(aud)
	}
	r.registerRegistration()
	r.registerSurfaces()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Arbeit Portal API
//	@version		0.1.0
//	@description	Session front-end of the Arbeit staffing platform. Staff and candidates sign in through
//	@description	separate audiences; each browser holds one independent session per audience.
//	@description
//	@description	The browser is identified by the arbeit_client cookie, issued on first contact.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/arbeit
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// lookup resolves the identity context of aud for the request's client.
func (r *Router) lookup(req *http.Request, aud domain.Audience) *identity.Context {
	clientID := httpx.ClientIDFromContext(req.Context())
	if clientID == "" {
		return nil
	}
	w := r.Workspaces.Get(req.Context(), clientID)
	if w == nil {
		return nil
	}
	return w.Context(aud)
}

// api wraps a JSON endpoint with the headers and limits every one carries.
func (r *Router) api(h http.Handler, mws ...httpx.Middleware) http.Handler {
	base := []httpx.Middleware{
		httpx.SecurityHeaders(),
		httpx.MaxBody(r.cfg.MaxBodyBytes),
	}
	return httpx.Chain(h, append(base, mws...)...)
}

func (r *Router) registerSession(aud domain.Audience) {
	h := &AuthHandler{
		Audience:    aud,
		Workspaces:  r.Workspaces,
		RestoreWait: r.cfg.RestoreWait,
	}
	prefix := "/v1/" + aud.String()

	// POST /login - strict rate limit by IP + email to slow down guessing
	r.Mux.Handle("POST "+prefix+"/login",
		r.api(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
			r.cookies.Middleware,
		),
	)

	// POST /change-password - strict rate limit by client
	r.Mux.Handle("POST "+prefix+"/change-password",
		r.api(http.HandlerFunc(h.HandleChangePassword),
			r.cookies.Middleware,
			httpx.RateLimitByClient(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST "+prefix+"/logout",
		r.api(http.HandlerFunc(h.HandleLogout),
			r.cookies.Middleware,
			httpx.RateLimitByClient(httpx.ModerateLimit),
		),
	)

	// Session reads are polled by the front-end
	r.Mux.Handle("GET "+prefix+"/session",
		r.api(http.HandlerFunc(h.HandleSession),
			r.cookies.Middleware,
			httpx.RateLimitByClient(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST "+prefix+"/session/refresh",
		r.api(http.HandlerFunc(h.HandleRefresh),
			r.cookies.Middleware,
			httpx.RateLimitByClient(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET "+prefix+"/session/events",
		httpx.Chain(http.HandlerFunc(h.HandleEvents),
			httpx.SecurityHeaders(),
			r.cookies.Middleware,
			httpx.RateLimitByClient(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProxy(aud domain.Audience) {
	if r.cfg.Upstream == nil {
		return
	}
	p := NewAPIProxy(aud, r.Workspaces, r.cfg.Upstream, r.cfg.Transport)
	r.Mux.Handle(ProxyPrefixes[aud][0],
		httpx.Chain(p,
			r.cookies.Middleware,
			httpx.RateLimitByClient(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerRegistration() {
	// POST /v1/candidate/register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/candidate/register",
		r.api(&RegisterHandler{RegistrationService: r.RegistrationService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSurfaces() {
	for _, s := range guard.Surfaces() {
		r.Mux.Handle("GET "+s.Path,
			r.api(r.guard.Protect(s, renderSurface),
				r.cookies.Middleware,
				httpx.RateLimitByClient(httpx.PublicLimit),
			),
		)
	}
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.cfg.BuildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.cfg.BuildVersion, r.store, r.upstream),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
