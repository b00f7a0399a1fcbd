// internal/app/features/authapi/authapi.go
package authapi

import (
	"errors"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	userstore "github.com/dalemusser/stratadmin/internal/app/store/users"
	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/auditlog"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/stratadmin/internal/app/system/authutil"
	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/normalize"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const msgInvalidCredentials = "Invalid credentials"

// Handler serves sign-in endpoints.
type Handler struct {
	authn       *auth.Authenticator
	userStore   *userstore.Store
	auditLogger *auditlog.Logger
	errLog      *errorsfeature.ErrorLogger
	logger      *zap.Logger
}

// NewHandler creates a new auth API Handler.
func NewHandler(
	db pgdb.Querier,
	authn *auth.Authenticator,
	auditLogger *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authn:       authn,
		userStore:   userstore.New(db),
		auditLogger: auditLogger,
		errLog:      errLog,
		logger:      logger,
	}
}

// Routes returns a chi.Router with the auth routes mounted. Login and Okta
// verification are public; the profile needs a bearer token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	r.Post("/verify-okta-token", h.verifyOkta)
	r.With(h.authn.RequireBearer).Get("/profile", h.profile)
	return r
}

type userResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		jsonutil.BadRequest(w, "Email and password required")
		return
	}

	u, err := h.userStore.GetByEmail(r.Context(), email)
	if err != nil {
		if apperr.IsNotFound(err) {
			h.auditLogger.LoginFailed(r, email, "user_not_found")
			jsonutil.Unauthorized(w, msgInvalidCredentials)
			return
		}
		h.errLog.Respond(w, r, "failed to load user for login", err)
		return
	}

	if !authutil.CanPasswordLogin(u, req.Password) {
		reason := "bad_password"
		if u.IsOktaManaged() {
			reason = "okta_managed"
		}
		h.auditLogger.LoginFailed(r, email, reason)
		jsonutil.Unauthorized(w, msgInvalidCredentials)
		return
	}

	token, err := h.authn.Tokens().Issue(u.ID, u.Email)
	if err != nil {
		h.errLog.Respond(w, r, "failed to issue token", err)
		return
	}

	h.auditLogger.LoginSuccess(r, u.ID, u.Email)
	jsonutil.OK(w, loginResponse{
		AccessToken: token,
		User:        userResponse{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

type verifyOktaRequest struct {
	Token string `json:"token"`
}

type verifyOktaResponse struct {
	User userResponse `json:"user"`
}

func (h *Handler) verifyOkta(w http.ResponseWriter, r *http.Request) {
	var req verifyOktaRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		jsonutil.BadRequest(w, "Token required")
		return
	}

	u, created, err := h.authn.ResolveOkta(r.Context(), raw)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			h.logger.Warn("okta token resolution failed", zap.Error(err))
		}
		jsonutil.Unauthorized(w, auth.ErrInvalidToken.Error())
		return
	}

	h.auditLogger.OktaLogin(r, u.ID, u.Email, created)
	jsonutil.OK(w, verifyOktaResponse{
		User: userResponse{ID: u.ID, Email: u.Email, Name: u.Name},
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, auth.ErrInvalidToken.Error())
		return
	}
	jsonutil.OK(w, u)
}
