// Package auth authenticates API callers by bearer token.
//
// Two token kinds are accepted on the same header: tokens this service issued
// at /auth/login (HS256, see TokenIssuer) and, when configured, access tokens
// from the Okta authorization server (RS256, see OktaVerifier). Either way the
// authenticated principal lands in the request context as a *User.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned for any token that fails verification. The
// message is the one clients see.
var ErrInvalidToken = errors.New("Invalid or expired token")

// Principal sources.
const (
	SourceLocal = "local"
	SourceOkta  = "okta"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// User is the authenticated principal of a request.
type User struct {
	ID     int    `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag from the request context.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok
}

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a User into the request context for testing.
func WithTestUser(r *http.Request, u *User) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authenticator                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// OktaUserResolver maps a verified Okta identity onto a local user row,
// creating it on first sign-in.
type OktaUserResolver interface {
	FindOrCreateOkta(ctx context.Context, email, name string) (*models.User, bool, error)
}

// Authenticator verifies bearer tokens.
type Authenticator struct {
	tokens *TokenIssuer
	okta   *OktaVerifier
	users  OktaUserResolver
	logger *zap.Logger
}

// NewAuthenticator creates an Authenticator. okta may be nil (or unconfigured)
// to accept only locally issued tokens.
func NewAuthenticator(tokens *TokenIssuer, okta *OktaVerifier, users OktaUserResolver, logger *zap.Logger) *Authenticator {
	if okta != nil && !okta.Enabled() {
		okta = nil
	}
	return &Authenticator{tokens: tokens, okta: okta, users: users, logger: logger}
}

// OktaEnabled reports whether Okta tokens are accepted.
func (a *Authenticator) OktaEnabled() bool {
	return a.okta != nil
}

// Tokens returns the issuer used for local logins.
func (a *Authenticator) Tokens() *TokenIssuer {
	return a.tokens
}

// ResolveOkta verifies an Okta access token and returns the matching local
// user. created reports whether this sign-in created the user.
func (a *Authenticator) ResolveOkta(ctx context.Context, raw string) (u *User, created bool, err error) {
	if a.okta == nil {
		return nil, false, ErrInvalidToken
	}
	id, err := a.okta.Verify(ctx, raw)
	if err != nil {
		return nil, false, err
	}
	row, created, err := a.users.FindOrCreateOkta(ctx, id.Email, id.Name)
	if err != nil {
		return nil, false, err
	}
	return &User{ID: row.ID, Email: row.Email, Name: row.Name, Source: SourceOkta}, created, nil
}

// Authenticate resolves a raw bearer token to a user. Locally issued tokens
// are tried first; Okta verification runs only when that fails.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*User, error) {
	u, err := a.tokens.Verify(raw)
	if err == nil {
		return u, nil
	}
	if a.okta == nil {
		return nil, err
	}
	u, _, err = a.ResolveOkta(ctx, raw)
	return u, err
}

// RequireBearer returns middleware that rejects requests without a valid
// "Authorization: Bearer <token>" header with 401 and otherwise injects the
// user into the request context.
func (a *Authenticator) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			a.logger.Debug("request rejected: missing bearer token",
				zap.String("path", r.URL.Path))
			jsonutil.Unauthorized(w, ErrInvalidToken.Error())
			return
		}

		u, err := a.Authenticate(r.Context(), raw)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				a.logger.Debug("request rejected: invalid token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
			} else {
				a.logger.Warn("request rejected: token resolution failed",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))
			}
			jsonutil.Unauthorized(w, ErrInvalidToken.Error())
			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
