package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	userstore "github.com/dalemusser/stratadmin/internal/app/store/users"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/stratadmin/internal/app/system/authutil"
	"github.com/dalemusser/stratadmin/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (http.Handler, *userstore.Store) {
	t.Helper()
	pool := testutil.SetupTestDB(t)

	store, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	appCfg := validConfig()
	deps := DBDeps{
		Postgres:    pool,
		FileStorage: store,
		Okta:        auth.NewOktaVerifier(auth.OktaConfig{}, zap.NewNop()),
	}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, appCfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler() error = %v", err)
	}
	return h, userstore.New(pool)
}

func TestBuildHandler_Routes(t *testing.T) {
	h, users := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := authutil.HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if _, err := users.Create(ctx, "admin@example.com", "Admin", hash); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	serve := func(method, target, token, body string) *testutil.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodGet, "/health", "", "")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"mongo":"disabled"`)

	// resource routes require a token
	for _, p := range []string{"/tables", "/folders/tree", "/files", "/materials", "/audit"} {
		serve(http.MethodGet, p, "", "").AssertStatus(t, http.StatusUnauthorized)
	}

	tokens, err := auth.NewTokenIssuer(validConfig().JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	u, _ := users.GetByEmail(ctx, "admin@example.com")
	token, err := tokens.Issue(u.ID, u.Email)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	serve(http.MethodGet, "/tables", token, "").AssertStatus(t, http.StatusOK)
	serve(http.MethodGet, "/folders/tree", token, "").AssertStatus(t, http.StatusOK)
	serve(http.MethodGet, "/audit", token, "").AssertContains(t, `"enabled":false`)

	login := serve(http.MethodPost, "/auth/login", "", `{"email":"admin@example.com","password":"admin123"}`)
	login.AssertStatus(t, http.StatusOK)
	login.AssertContains(t, "access_token")

	nf := serve(http.MethodGet, "/nowhere", "", "")
	nf.AssertStatus(t, http.StatusNotFound)
	nf.AssertContains(t, "Not found")
}
