package bootstrap

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		PostgresURL:   "postgres://localhost/stratadmin",
		JWTSecret:     "a-real-secret",
		JWTExpiresIn:  2 * time.Hour,
		StorageType:   "local",
		AuditLogAuth:  "all",
		AuditLogAdmin: "log",
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example.com, ,https://b.example.com ")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("splitList() = %q, want two trimmed origins", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %q, want nil", got)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", "dev", func(c *AppConfig) {}, ""},
		{"missing postgres", "dev", func(c *AppConfig) { c.PostgresURL = " " }, "postgres_url"},
		{"bad mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "http://nope" }, "MongoDB URI"},
		{"dev secret in dev", "dev", func(c *AppConfig) { c.JWTSecret = DevJWTSecret }, ""},
		{"dev secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = DevJWTSecret }, "development default"},
		{"zero ttl", "dev", func(c *AppConfig) { c.JWTExpiresIn = 0 }, "jwt_expires_in"},
		{"bad audit mode", "dev", func(c *AppConfig) { c.AuditLogAdmin = "sometimes" }, "audit_log_admin"},
		{"unknown storage", "dev", func(c *AppConfig) { c.StorageType = "ftp" }, "unknown storage type"},
		{"s3 without bucket", "dev", func(c *AppConfig) { c.StorageType = "s3" }, "storage_s3_bucket"},
		{"local url collides", "dev", func(c *AppConfig) { c.StorageLocalURL = "/files/" }, "collides"},
		{"local url relative", "dev", func(c *AppConfig) { c.StorageLocalURL = "uploads" }, "must start with /"},
		{"local url ok", "dev", func(c *AppConfig) { c.StorageLocalURL = "/uploads" }, ""},
		{"weak seed password", "dev", func(c *AppConfig) { c.SeedAdminPassword = "admin" }, "seed_admin_password"},
		{"seed password ok", "dev", func(c *AppConfig) { c.SeedAdminPassword = "admin123" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, zap.NewNop())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateConfig() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
