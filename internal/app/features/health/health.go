// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/tasks"
	"github.com/dalemusser/stratadmin/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides health check endpoints.
type Handler struct {
	postgres    Pinger
	mongoClient *mongo.Client // nil when the audit database is disabled
	jobs        func() []tasks.Status
	logger      *zap.Logger
}

// NewHandler creates a new health check Handler. mongoClient may be nil.
func NewHandler(postgres Pinger, mongoClient *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		postgres:    postgres,
		mongoClient: mongoClient,
		logger:      logger,
	}
}

// WithJobs makes Check report background job status from jobs.
func (h *Handler) WithJobs(jobs func() []tasks.Status) *Handler {
	h.jobs = jobs
	return h
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
	Jobs     []tasks.Status    `json:"jobs,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /live directly on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
}

func (h *Handler) pingPostgres(ctx context.Context) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), h.logger, "postgres ping")
	defer cancel()
	return h.postgres.Ping(ctx)
}

// Check reports the state of Postgres and, when configured, the Mongo audit
// database. Postgres down is fatal (503); Mongo down only degrades.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:   "ok",
		Services: make(map[string]string),
	}
	status := http.StatusOK

	if err := h.pingPostgres(r.Context()); err != nil {
		resp.Status = "unavailable"
		resp.Services["postgres"] = "unavailable"
		status = http.StatusServiceUnavailable
		h.logger.Warn("health check: postgres ping failed", zap.Error(err))
	} else {
		resp.Services["postgres"] = "ok"
	}

	if h.mongoClient == nil {
		resp.Services["mongo"] = "disabled"
	} else {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.logger, "mongo ping")
		defer cancel()
		if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
			resp.Services["mongo"] = "unavailable"
			h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
		} else {
			resp.Services["mongo"] = "ok"
		}
	}

	// a failing job is reported but does not change the overall status
	if h.jobs != nil {
		resp.Jobs = h.jobs()
	}

	jsonutil.JSON(w, status, resp)
}

// Ready checks if the service is ready to accept requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.pingPostgres(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live checks if the service is alive.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
