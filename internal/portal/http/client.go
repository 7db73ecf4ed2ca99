package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/arbeit/pkg/httpx"
	"github.com/aussiebroadwan/arbeit/pkg/idx"
	"github.com/aussiebroadwan/arbeit/pkg/jwtx"
	"github.com/aussiebroadwan/arbeit/pkg/slogx"
)

// ClientCookieName holds the signed browser client identity.
const ClientCookieName = "arbeit_client"

// ClientCookies identifies the browser behind a request. Every browser gets
// a ULID client ID in an HS256-signed cookie; the ID keys its workspace and
// session records.
type ClientCookies struct {
	Signer   *jwtx.Signer
	Verifier *jwtx.Verifier
	Issuer   string
	TTL      time.Duration
	Secure   bool
	Now      func() time.Time
}

func (c *ClientCookies) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Middleware resolves or issues the client ID and stores it in the request
// context.
func (c *ClientCookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())

		clientID, renew := c.resolve(r)
		if clientID == "" {
			clientID = idx.New().String()
			renew = true
			log.Debug("issuing new client identity", "client_id", clientID)
		}

		if renew {
			if err := c.issue(w, clientID); err != nil {
				log.Error("failed to sign client cookie", "error", err)
				httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
				return
			}
		}

		ctx := httpx.WithClientID(r.Context(), clientID)
		ctx = slogx.WithClientID(ctx, clientID)
		r = r.WithContext(ctx)
		slogx.Annotate(w, r)

		next.ServeHTTP(w, r)
	})
}

// resolve returns the client ID of a valid cookie and whether it should be
// reissued.
func (c *ClientCookies) resolve(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(ClientCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	claims, err := c.Verifier.Verify(cookie.Value)
	if err != nil {
		slogx.FromContext(r.Context()).Debug("ignoring invalid client cookie", "error", err)
		return "", false
	}
	if !idx.Valid(claims.Subject) {
		return "", false
	}
	return claims.Subject, claims.ShouldRenew(c.now())
}

func (c *ClientCookies) issue(w http.ResponseWriter, clientID string) error {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultClientTokenTTL
	}
	token, err := c.Signer.Sign(jwtx.NewClientClaims(clientID, c.Issuer, ttl, c.now()))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
