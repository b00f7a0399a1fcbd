// internal/app/features/folders/folders.go
package folders

import (
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	"github.com/dalemusser/stratadmin/internal/app/store/folder"
	"github.com/dalemusser/stratadmin/internal/app/system/auditlog"
	"github.com/dalemusser/stratadmin/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the folder tree.
type Handler struct {
	folderStore *folder.Store
	auditLogger *auditlog.Logger
	errLog      *errorsfeature.ErrorLogger
	logger      *zap.Logger
}

// NewHandler creates a new folders Handler.
func NewHandler(
	db pgdb.DB,
	auditLogger *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		folderStore: folder.New(db),
		auditLogger: auditLogger,
		errLog:      errLog,
		logger:      logger,
	}
}

// Routes returns a chi.Router with folder routes mounted.
// Authentication is applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/tree", h.tree)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/path", h.path)
	r.Put("/{id}", h.update)
	r.Put("/{id}/move", h.move)
	r.Delete("/{id}", h.delete)
	return r
}

// folderID parses the {id} URL parameter, writing a 400 when it is not an integer.
func folderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid folder id")
		return 0, false
	}
	return id, true
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	includeFiles := r.URL.Query().Get("includeFiles") == "true"

	nodes, err := h.folderStore.Tree(r.Context(), includeFiles)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load folder tree", err)
		return
	}
	if nodes == nil {
		nodes = []*folder.Node{}
	}
	jsonutil.OK(w, nodes)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := folderID(w, r)
	if !ok {
		return
	}

	d, err := h.folderStore.Get(r.Context(), id)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load folder", err, zap.Int("folder_id", id))
		return
	}
	jsonutil.OK(w, d)
}

func (h *Handler) path(w http.ResponseWriter, r *http.Request) {
	id, ok := folderID(w, r)
	if !ok {
		return
	}

	path, err := h.folderStore.Path(r.Context(), id)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load folder path", err, zap.Int("folder_id", id))
		return
	}
	jsonutil.OK(w, path)
}

type createRequest struct {
	Name     string `json:"name"`
	ParentID *int   `json:"parentId"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}

	f, err := h.folderStore.Create(r.Context(), folder.CreateInput{
		Name:     htmlsanitize.Text(req.Name),
		ParentID: req.ParentID,
	})
	if err != nil {
		h.errLog.Respond(w, r, "failed to create folder", err)
		return
	}
	jsonutil.Created(w, f)
}

type updateRequest struct {
	Name     *string              `json:"name"`
	ParentID jsonutil.OptionalInt `json:"parentId"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := folderID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}

	input := folder.UpdateInput{
		ParentID:  req.ParentID.Value,
		SetParent: req.ParentID.Set,
	}
	if req.Name != nil {
		name := htmlsanitize.Text(*req.Name)
		input.Name = &name
	}

	f, err := h.folderStore.Update(r.Context(), id, input)
	if err != nil {
		h.errLog.Respond(w, r, "failed to update folder", err, zap.Int("folder_id", id))
		return
	}
	jsonutil.OK(w, f)
}

type moveRequest struct {
	ParentID *int `json:"parentId"`
	Order    *int `json:"order"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	id, ok := folderID(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	if req.Order == nil {
		jsonutil.BadRequest(w, "Order required")
		return
	}

	d, err := h.folderStore.Move(r.Context(), id, req.ParentID, *req.Order)
	if err != nil {
		h.errLog.Respond(w, r, "failed to move folder", err, zap.Int("folder_id", id))
		return
	}
	jsonutil.OK(w, d)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := folderID(w, r)
	if !ok {
		return
	}

	f, err := h.folderStore.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load folder", err, zap.Int("folder_id", id))
		return
	}
	if err := h.folderStore.Delete(r.Context(), id); err != nil {
		h.errLog.Respond(w, r, "failed to delete folder", err, zap.Int("folder_id", id))
		return
	}

	h.auditLogger.FolderDeleted(r, f.ID, f.Name)
	jsonutil.OK(w, f)
}
