package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// DefaultOktaAudience is the audience of the Okta default authorization server.
const DefaultOktaAudience = "api://default"

const (
	defaultKeysTTL     = time.Hour
	minKeysRefetch     = 30 * time.Second
	maxKeysBody        = 1 << 20
	defaultHTTPTimeout = 10 * time.Second
)

// OktaConfig configures an OktaVerifier.
type OktaConfig struct {
	Issuer   string // e.g. https://example.okta.com/oauth2/default
	ClientID string // required "cid" claim
	Audience string // blank = DefaultOktaAudience
	KeysURL  string // blank = Issuer + "/v1/keys"
	KeysTTL  time.Duration
	Client   *http.Client
}

// OktaClaims are the access-token claims the console reads.
type OktaClaims struct {
	ClientID string `json:"cid"`
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// OktaIdentity is a verified Okta caller.
type OktaIdentity struct {
	Subject string
	Email   string
	Name    string
}

// OktaVerifier validates Okta access tokens against the issuer's published
// signing keys. Keys are cached and refetched when stale or when a token
// names a key id the cache does not hold.
type OktaVerifier struct {
	cfg    OktaConfig
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	keys    jose.JSONWebKeySet
	fetched time.Time
}

// NewOktaVerifier creates a verifier. It does no network I/O until the first
// token arrives.
func NewOktaVerifier(cfg OktaConfig, logger *zap.Logger) *OktaVerifier {
	cfg.Issuer = strings.TrimRight(strings.TrimSpace(cfg.Issuer), "/")
	if cfg.Audience == "" {
		cfg.Audience = DefaultOktaAudience
	}
	if cfg.KeysURL == "" && cfg.Issuer != "" {
		cfg.KeysURL = cfg.Issuer + "/v1/keys"
	}
	if cfg.KeysTTL <= 0 {
		cfg.KeysTTL = defaultKeysTTL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &OktaVerifier{cfg: cfg, logger: logger, now: time.Now}
}

// Enabled reports whether issuer and client id are configured.
func (v *OktaVerifier) Enabled() bool {
	return v.cfg.Issuer != "" && v.cfg.ClientID != ""
}

// Verify validates signature, issuer, audience, expiry and client id. Every
// token failure wraps ErrInvalidToken; failures to reach the key endpoint do not.
func (v *OktaVerifier) Verify(ctx context.Context, raw string) (*OktaIdentity, error) {
	var (
		claims   OktaClaims
		fetchErr error
	)
	keyFunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}
		key, err := v.key(ctx, kid)
		if err != nil {
			fetchErr = err
		}
		return key, err
	}

	_, err := jwt.ParseWithClaims(raw, &claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ClientID != v.cfg.ClientID {
		return nil, fmt.Errorf("%w: unexpected client id %q", ErrInvalidToken, claims.ClientID)
	}

	id := &OktaIdentity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}
	if id.Email == "" {
		id.Email = claims.Subject
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	if id.Email == "" {
		return nil, fmt.Errorf("%w: no email or subject", ErrInvalidToken)
	}
	return id, nil
}

var errUnknownKey = errors.New("unknown signing key")

// key returns the public key for kid, refreshing the cache when needed.
func (v *OktaVerifier) key(ctx context.Context, kid string) (any, error) {
	v.mu.RLock()
	key, ok := lookupKey(v.keys, kid)
	stale := v.now().Sub(v.fetched) > v.cfg.KeysTTL
	canRefetch := v.now().Sub(v.fetched) > minKeysRefetch
	v.mu.RUnlock()

	if ok && !stale {
		return key, nil
	}
	if !stale && !canRefetch {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidToken, errUnknownKey, kid)
	}

	if err := v.refresh(ctx); err != nil {
		if ok {
			// a stale key stays usable while the issuer is unreachable
			v.logger.Warn("okta key refresh failed, using cached key", zap.Error(err))
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	key, ok = lookupKey(v.keys, kid)
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidToken, errUnknownKey, kid)
	}
	return key, nil
}

func lookupKey(set jose.JSONWebKeySet, kid string) (any, bool) {
	for _, k := range set.Key(kid) {
		if k.Use == "" || k.Use == "sig" {
			return k.Key, true
		}
	}
	return nil, false
}

// Refresh refetches the signing keys now. It is a no-op when Okta is not
// configured.
func (v *OktaVerifier) Refresh(ctx context.Context) error {
	if !v.Enabled() {
		return nil
	}
	return v.refresh(ctx)
}

// refresh fetches the key set from the issuer.
func (v *OktaVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.KeysURL, nil)
	if err != nil {
		return fmt.Errorf("build keys request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch okta keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch okta keys: status %d", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeysBody)).Decode(&set); err != nil {
		return fmt.Errorf("decode okta keys: %w", err)
	}

	v.mu.Lock()
	v.keys = set
	v.fetched = v.now()
	v.mu.Unlock()

	v.logger.Debug("okta signing keys refreshed",
		zap.String("url", v.cfg.KeysURL),
		zap.Int("keys", len(set.Keys)))
	return nil
}
