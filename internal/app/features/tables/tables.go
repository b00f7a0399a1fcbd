// internal/app/features/tables/tables.go
package tables

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	tablestore "github.com/dalemusser/stratadmin/internal/app/store/tables"
	"github.com/dalemusser/stratadmin/internal/app/system/auditlog"
	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the generic table editor.
type Handler struct {
	svc         *tablestore.Service
	auditLogger *auditlog.Logger
	errLog      *errorsfeature.ErrorLogger
	logger      *zap.Logger
}

// NewHandler creates a new tables Handler. rowLimit <= 0 uses the store default.
func NewHandler(
	db pgdb.Querier,
	rowLimit int,
	auditLogger *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		svc:         tablestore.New(db, rowLimit),
		auditLogger: auditLogger,
		errLog:      errLog,
		logger:      logger,
	}
}

// Routes returns a chi.Router with table editor routes mounted.
// Authentication is applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listTables)
	r.Post("/", h.createTable)
	r.Get("/{table}/columns", h.columns)
	r.Get("/{table}/rows", h.rows)
	r.Post("/{table}/rows", h.insertRow)
	r.Put("/{table}/rows", h.updateRow)
	return r
}

type mutationResponse struct {
	OK       bool   `json:"ok"`
	Affected *int64 `json:"affected,omitempty"`
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListTables(r.Context())
	if err != nil {
		h.errLog.Respond(w, r, "failed to list tables", err)
		return
	}
	jsonutil.OK(w, names)
}

func (h *Handler) columns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.Columns(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		h.errLog.Respond(w, r, "failed to read columns", err)
		return
	}
	jsonutil.OK(w, cols)
}

func (h *Handler) rows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	rows, err := h.svc.Rows(r.Context(), table)
	if err != nil {
		h.errLog.Respond(w, r, "failed to read rows", err, zap.String("table", table))
		return
	}
	jsonutil.OK(w, rows)
}

type insertRequest struct {
	Values map[string]any `json:"values"`
}

func (h *Handler) insertRow(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := jsonutil.DecodeNumbers(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}

	table := chi.URLParam(r, "table")
	affected, err := h.svc.InsertRow(r.Context(), table, req.Values)
	if err != nil {
		h.errLog.Respond(w, r, "failed to insert row", err, zap.String("table", table))
		return
	}

	h.auditLogger.TableRowInserted(r, table, affected)
	jsonutil.Created(w, mutationResponse{OK: true, Affected: &affected})
}

type updateRequest struct {
	Original map[string]any `json:"original"`
	Values   map[string]any `json:"values"`
}

func (h *Handler) updateRow(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := jsonutil.DecodeNumbers(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}

	table := chi.URLParam(r, "table")
	affected, err := h.svc.UpdateRow(r.Context(), table, req.Original, req.Values)
	if err != nil {
		h.errLog.Respond(w, r, "failed to update row", err, zap.String("table", table))
		return
	}

	h.auditLogger.TableRowUpdated(r, table, affected)
	jsonutil.OK(w, mutationResponse{OK: true, Affected: &affected})
}

type createTableRequest struct {
	TableName string                 `json:"tableName"`
	Columns   []tablestore.ColumnDef `json:"columns"`
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.svc.CreateTable(r.Context(), req.TableName, req.Columns); err != nil {
		h.errLog.Respond(w, r, "failed to create table", err, zap.String("table", req.TableName))
		return
	}

	h.logger.Info("table created",
		zap.String("table", req.TableName),
		zap.Int("columns", len(req.Columns)))
	h.auditLogger.TableCreated(r, req.TableName, len(req.Columns))
	jsonutil.Created(w, mutationResponse{OK: true})
}
