// internal/app/features/materials/materials.go
package materials

import (
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	"github.com/dalemusser/stratadmin/internal/app/store/material"
	"github.com/dalemusser/stratadmin/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadmin/internal/app/system/inputval"
	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the materials inventory.
type Handler struct {
	materialStore *material.Store
	errLog        *errorsfeature.ErrorLogger
	logger        *zap.Logger
}

// NewHandler creates a new materials Handler.
func NewHandler(db pgdb.Querier, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		materialStore: material.New(db),
		errLog:        errLog,
		logger:        logger,
	}
}

// Routes returns a chi.Router with materials routes mounted.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.materialStore.List(r.Context(), material.ListFilter{
		Department: q.Get("department"),
		Category:   q.Get("category"),
		Name:       q.Get("name"),
	})
	if err != nil {
		h.errLog.Respond(w, r, "failed to list materials", err)
		return
	}
	jsonutil.OK(w, items)
}

// inputRules bounds the free-text fields and rejects negative amounts.
// Presence of code and name is checked by the store.
type inputRules struct {
	Code       string  `validate:"max=64" label:"Code"`
	Name       string  `validate:"max=200" label:"Name"`
	Category   string  `validate:"max=100" label:"Category"`
	Department string  `validate:"max=100" label:"Department"`
	Unit       string  `validate:"max=32" label:"Unit"`
	Quantity   int     `validate:"nonneg" label:"Quantity"`
	Price      float64 `validate:"nonneg" label:"Price"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// decodeInput reads, sanitizes and validates a material body. It writes the
// 400 itself and returns false on failure.
func decodeInput(w http.ResponseWriter, r *http.Request) (material.Input, bool) {
	var in material.Input
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return in, false
	}

	in.Name = htmlsanitize.TextPtr(in.Name)
	in.Category = htmlsanitize.TextPtr(in.Category)
	in.Department = htmlsanitize.TextPtr(in.Department)
	in.Unit = htmlsanitize.TextPtr(in.Unit)

	res := inputval.Validate(inputRules{
		Code:       deref(in.Code),
		Name:       deref(in.Name),
		Category:   deref(in.Category),
		Department: deref(in.Department),
		Unit:       deref(in.Unit),
		Quantity:   deref(in.Quantity),
		Price:      deref(in.Price),
	})
	if res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return in, false
	}
	return in, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	m, err := h.materialStore.Create(r.Context(), in)
	if err != nil {
		h.errLog.Respond(w, r, "failed to create material", err)
		return
	}
	jsonutil.Created(w, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid material id")
		return
	}

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	m, err := h.materialStore.Update(r.Context(), id, in)
	if err != nil {
		h.errLog.Respond(w, r, "failed to update material", err, zap.Int("material_id", id))
		return
	}
	jsonutil.OK(w, m)
}
