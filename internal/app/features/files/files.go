// internal/app/features/files/files.go
package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	"github.com/dalemusser/stratadmin/internal/app/store/file"
	"github.com/dalemusser/stratadmin/internal/app/system/auditlog"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/stratadmin/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadmin/internal/app/system/normalize"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipart bodies carry headers and the other form fields on top of the file.
const multipartOverhead = 1 << 20

// Handler provides file library handlers.
type Handler struct {
	fileStore     *file.Store
	fileStorage   storage.Store
	maxUploadSize int64
	auditLogger   *auditlog.Logger
	errLog        *errorsfeature.ErrorLogger
	logger        *zap.Logger
	now           func() time.Time
}

// NewHandler creates a new files Handler. maxUploadSize <= 0 uses
// DefaultMaxUploadSize.
func NewHandler(
	db pgdb.DB,
	fileStorage storage.Store,
	maxUploadSize int64,
	auditLogger *auditlog.Logger,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{
		fileStore:     file.New(db),
		fileStorage:   fileStorage,
		maxUploadSize: maxUploadSize,
		auditLogger:   auditLogger,
		errLog:        errLog,
		logger:        logger,
		now:           time.Now,
	}
}

// Routes returns a chi.Router with file routes mounted.
// Authentication is applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Post("/upload", h.upload)
	r.Get("/{id}", h.get)
	r.Get("/{id}/download", h.download)
	r.Put("/{id}", h.update)
	r.Put("/{id}/move", h.move)
	r.Delete("/{id}", h.delete)
	return r
}

func fileID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid file id")
		return 0, false
	}
	return id, true
}

// parseFolderParam reads a folder id from a form or query value. "" means not
// given; "root" and "null" select the root level.
func parseFolderParam(v string) (id *int, set bool, err error) {
	v = strings.TrimSpace(v)
	switch v {
	case "":
		return nil, false, nil
	case "root", "null":
		return nil, true, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, false, err
	}
	return &n, true, nil
}

func (h *Handler) tooLarge(w http.ResponseWriter) {
	jsonutil.PayloadTooLarge(w, "File too large (max "+FormatFileSize(h.maxUploadSize)+")")
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := auth.CurrentUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w)
			return
		}
		jsonutil.BadRequest(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploaded, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.BadRequest(w, "No file uploaded")
		return
	}
	defer uploaded.Close()

	if header.Size > h.maxUploadSize {
		h.tooLarge(w)
		return
	}
	ext, ok := uploadExtension(header.Filename)
	if !ok {
		jsonutil.BadRequest(w, "File type not allowed")
		return
	}
	folderID, _, err := parseFolderParam(r.FormValue("folderId"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid folder id")
		return
	}

	name := storedName(ext)
	path := storagePath(h.now(), name)
	contentType := contentTypeFor(header.Header.Get("Content-Type"), ext)

	if err := h.fileStorage.Put(ctx, path, uploaded, &storage.PutOptions{ContentType: contentType}); err != nil {
		h.errLog.Log(r, "failed to store uploaded file", err)
		jsonutil.InternalError(w, "Failed to store file")
		return
	}

	input := file.CreateInput{
		Filename:     name,
		OriginalName: header.Filename,
		MimeType:     contentType,
		FileSize:     header.Size,
		FilePath:     path,
		Description:  htmlsanitize.TextPtr(optionalForm(r, "description")),
		Category:     htmlsanitize.Text(r.FormValue("category")),
		FolderID:     folderID,
		UploadedBy:   strconv.Itoa(actor.ID),
	}
	created, err := h.fileStore.Create(ctx, input)
	if err != nil {
		// the record failed; do not leave orphaned content behind
		if delErr := h.fileStorage.Delete(ctx, path); delErr != nil {
			h.logger.Warn("failed to remove stored file after insert error",
				zap.String("path", path), zap.Error(delErr))
		}
		h.errLog.Respond(w, r, "failed to create file record", err)
		return
	}

	h.logger.Info("file uploaded",
		zap.Int("file_id", created.ID),
		zap.String("path", path),
		zap.Int64("size", created.FileSize))
	h.auditLogger.FileUploaded(r, created.ID, created.OriginalName, created.FileSize)
	jsonutil.Created(w, created)
}

func optionalForm(r *http.Request, key string) *string {
	if _, ok := r.MultipartForm.Value[key]; !ok {
		return nil
	}
	v := r.FormValue(key)
	return &v
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	folderID, folderSet, err := parseFolderParam(q.Get("folderId"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid folder id")
		return
	}

	files, err := h.fileStore.List(r.Context(), file.ListFilter{
		FolderID:  folderID,
		FolderSet: folderSet,
		Category:  normalize.QueryParam(q.Get("category")),
		Search:    normalize.QueryParam(q.Get("search")),
	})
	if err != nil {
		h.errLog.Respond(w, r, "failed to list files", err)
		return
	}
	jsonutil.OK(w, files)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.fileStore.Stats(r.Context())
	if err != nil {
		h.errLog.Respond(w, r, "failed to compute file stats", err)
		return
	}
	jsonutil.OK(w, st)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load file", err, zap.Int("file_id", id))
		return
	}
	jsonutil.OK(w, f)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.GetByID(ctx, id)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load file", err, zap.Int("file_id", id))
		return
	}

	reader, err := h.fileStorage.Get(ctx, f.FilePath)
	if err != nil {
		h.logger.Warn("stored file missing",
			zap.Int("file_id", f.ID),
			zap.String("path", f.FilePath),
			zap.Error(err))
		jsonutil.NotFound(w, "Physical file not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.OriginalName))
	if f.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.FileSize, 10))
	}

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream file",
			zap.String("path", f.FilePath),
			zap.Error(err))
	}
}

type updateRequest struct {
	Description *string              `json:"description"`
	Category    *string              `json:"category"`
	FolderID    jsonutil.OptionalInt `json:"folderId"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}

	input := file.UpdateInput{
		FolderID:  req.FolderID.Value,
		SetFolder: req.FolderID.Set,
	}
	if req.Description != nil {
		d := htmlsanitize.Text(*req.Description)
		input.Description = &d
	}
	if req.Category != nil {
		c := htmlsanitize.Text(*req.Category)
		input.Category = &c
	}

	f, err := h.fileStore.Update(r.Context(), id, input)
	if err != nil {
		h.errLog.Respond(w, r, "failed to update file", err, zap.Int("file_id", id))
		return
	}
	jsonutil.OK(w, f)
}

type moveRequest struct {
	FolderID *int `json:"folderId"`
	Order    *int `json:"order"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
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

	f, err := h.fileStore.Move(r.Context(), id, req.FolderID, *req.Order)
	if err != nil {
		h.errLog.Respond(w, r, "failed to move file", err, zap.Int("file_id", id))
		return
	}
	jsonutil.OK(w, f)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	f, err := h.fileStore.GetByID(ctx, id)
	if err != nil {
		h.errLog.Respond(w, r, "failed to load file", err, zap.Int("file_id", id))
		return
	}

	if err := h.fileStorage.Delete(ctx, f.FilePath); err != nil {
		h.logger.Warn("failed to delete file from storage",
			zap.String("path", f.FilePath),
			zap.Error(err))
	}

	if err := h.fileStore.Delete(ctx, id); err != nil {
		h.errLog.Respond(w, r, "failed to delete file record", err, zap.Int("file_id", id))
		return
	}

	h.auditLogger.FileDeleted(r, f.ID, f.OriginalName)
	jsonutil.OK(w, f)
}
