package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aussiebroadwan/arbeit/pkg/cryptox"
	"github.com/aussiebroadwan/arbeit/pkg/jwtx"
)

// clientCookieKID names the one HS256 key client cookies are signed with.
const clientCookieKID = "client-v1"

// Keys are the working keys derived from the master secret.
type Keys struct {
	CookieKeys *jwtx.KeySet
	Sealer     *cryptox.Sealer

	// Ephemeral is set when no master secret was configured. Cookies and
	// stored sessions do not survive a restart then.
	Ephemeral bool
}

// loadMasterSecret returns the configured secret, read from the environment
// or from MasterSecretFile. It returns "" when neither is set.
func loadMasterSecret(cfg Config) (string, error) {
	if cfg.MasterSecret != "" {
		return cfg.MasterSecret, nil
	}
	if cfg.MasterSecretFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(cfg.MasterSecretFile)
	if err != nil {
		return "", fmt.Errorf("read master secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// InitKeys derives the cookie signing key and the session sealing key.
//
// Without a configured master secret a random one is generated in dev; any
// other environment refuses to start.
func InitKeys(cfg Config, logger *slog.Logger) (*Keys, error) {
	master, err := loadMasterSecret(cfg)
	if err != nil {
		return nil, err
	}

	ephemeral := false
	switch {
	case master == "" && cfg.Env == "dev":
		master, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		ephemeral = true
		logger.Warn("no master secret configured, using an ephemeral one; sessions will not survive restarts")
	case master == "":
		return nil, fmt.Errorf("%w: PORTAL_MASTER_SECRET or PORTAL_MASTER_SECRET_FILE is required outside dev", cryptox.ErrWeakMasterSecret)
	case len(master) < cryptox.MinMasterSecretLen && cfg.Env != "dev":
		return nil, fmt.Errorf("%w: need at least %d bytes", cryptox.ErrWeakMasterSecret, cryptox.MinMasterSecretLen)
	}

	cookieKey, err := cryptox.DeriveKey([]byte(master), cryptox.PurposeClientCookie)
	if err != nil {
		return nil, err
	}
	keys := jwtx.NewKeySet()
	if err := keys.Add(clientCookieKID, cookieKey); err != nil {
		return nil, err
	}

	sealKey, err := cryptox.DeriveKey([]byte(master), cryptox.PurposeSessionSeal)
	if err != nil {
		return nil, err
	}
	sealer, err := cryptox.NewSealer(sealKey)
	if err != nil {
		return nil, err
	}

	logger.Info("portal keys derived", "ephemeral", ephemeral, "cookie_kid", clientCookieKID)
	return &Keys{CookieKeys: keys, Sealer: sealer, Ephemeral: ephemeral}, nil
}
