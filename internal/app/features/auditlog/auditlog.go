// internal/app/features/auditlog/auditlog.go
package auditlog

import (
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	"github.com/dalemusser/stratadmin/internal/app/store/audit"
	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/normalize"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler serves the audit trail.
type Handler struct {
	auditStore *audit.Store // nil when no audit database is configured
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new audit log Handler. store may be nil.
func NewHandler(
	store *audit.Store,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		auditStore: store,
		errLog:     errLog,
		logger:     logger,
	}
}

// listResponse is one page of audit events, newest first.
type listResponse struct {
	Enabled    bool          `json:"enabled"`
	Items      []audit.Event `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int64         `json:"total"`
	EventTypes []string      `json:"eventTypes"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventOktaLogin,
	}

	adminEvents := []string{
		audit.EventTableCreated,
		audit.EventTableRowInserted,
		audit.EventTableRowUpdated,
		audit.EventFolderDeleted,
		audit.EventFileUploaded,
		audit.EventFileDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return []string{}
	}
}

// Routes returns a chi.Router with audit log routes mounted.
// Authentication is applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	return r
}

// parseFilter reads category, event_type, start_date, end_date (YYYY-MM-DD
// in tz, default local) and page from the query string.
func parseFilter(r *http.Request) (audit.QueryFilter, int) {
	q := r.URL.Query()
	category := normalize.QueryParam(q.Get("category"))
	eventType := normalize.QueryParam(q.Get("event_type"))
	startDate := normalize.QueryParam(q.Get("start_date"))
	endDate := normalize.QueryParam(q.Get("end_date"))
	tzParam := normalize.QueryParam(q.Get("tz"))

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	// Load timezone location for date parsing (fall back to Local if invalid)
	loc := time.Local
	if tzParam != "" {
		if parsedLoc, err := time.LoadLocation(tzParam); err == nil {
			loc = parsedLoc
		}
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if startDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", startDate, loc); err == nil {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", endDate, loc); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Second)
			filter.EndTime = &endOfDay
		}
	}
	return filter, page
}

// list returns one page of the audit log with its filters applied.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, page := parseFilter(r)
	resp := listResponse{
		Items:      []audit.Event{},
		Page:       page,
		TotalPages: 1,
		EventTypes: eventTypesForCategory(filter.Category),
	}

	if h.auditStore == nil {
		jsonutil.OK(w, resp)
		return
	}
	resp.Enabled = true

	events, err := h.auditStore.Query(r.Context(), filter)
	if err != nil {
		h.errLog.Respond(w, r, "failed to query audit events", err)
		return
	}
	resp.Items = events

	total, err := h.auditStore.CountByFilter(r.Context(), filter)
	if err != nil {
		h.logger.Warn("failed to count audit events", zap.Error(err))
		total = int64(len(events))
	}
	resp.Total = total

	if totalPages := int((total + pageSize - 1) / pageSize); totalPages > 1 {
		resp.TotalPages = totalPages
	}
	jsonutil.OK(w, resp)
}
