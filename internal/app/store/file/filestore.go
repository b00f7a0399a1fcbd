// Package file provides storage for uploaded file records.
//
// Content lives in the blob store; this package only tracks the metadata row
// and its place among the files of a folder.
package file

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/ordering"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/app/system/txn"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

// siblings of a file share its folderId (NULL = root).
var scope = ordering.Scope{Table: "files", ParentColumn: "folderId"}

const selectFile = `
	SELECT f.id, f.filename, f."originalName", f."mimeType", f."fileSize", f."filePath",
		f.description, f.category, f."folderId", f."order", f."uploadedBy",
		f."createdAt", f."updatedAt", fo.id, fo.name
	FROM files f
	LEFT JOIN folders fo ON fo.id = f."folderId"`

// Store provides access to the files table.
type Store struct {
	db pgdb.DB
}

// New creates a new file store.
func New(db pgdb.DB) *Store {
	return &Store{db: db}
}

func scanFile(row pgx.Row) (models.File, error) {
	var (
		f          models.File
		folderID   *int
		folderName *string
	)
	err := row.Scan(&f.ID, &f.Filename, &f.OriginalName, &f.MimeType, &f.FileSize, &f.FilePath,
		&f.Description, &f.Category, &f.FolderID, &f.Order, &f.UploadedBy,
		&f.CreatedAt, &f.UpdatedAt, &folderID, &folderName)
	if err != nil {
		return f, err
	}
	if folderID != nil && folderName != nil {
		f.Folder = &models.FolderRef{ID: *folderID, Name: *folderName}
	}
	return f, nil
}

func collectFiles(rows pgx.Rows) ([]models.File, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.File, error) {
		return scanFile(row)
	})
}

// CreateInput contains the input for creating a file record.
type CreateInput struct {
	Filename     string
	OriginalName string
	MimeType     string
	FileSize     int64
	FilePath     string
	Description  *string
	Category     string // blank = models.DefaultFileCategory
	FolderID     *int   // nil = root level
	UploadedBy   string
}

// Create inserts a file record ranked after its current siblings.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	category := input.Category
	if category == "" {
		category = models.DefaultFileCategory
	}

	var id int
	err := s.db.QueryRow(ctx, `
		INSERT INTO files (filename, "originalName", "mimeType", "fileSize", "filePath",
			description, category, "folderId", "order", "uploadedBy")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			(SELECT COALESCE(MAX("order") + 1, 0) FROM files WHERE "folderId" IS NOT DISTINCT FROM $8::int),
			$9)
		RETURNING id`,
		input.Filename, input.OriginalName, input.MimeType, input.FileSize, input.FilePath,
		input.Description, category, input.FolderID, input.UploadedBy,
	).Scan(&id)
	if err != nil {
		if pgdb.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("Folder not found")
		}
		return nil, fmt.Errorf("insert file: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID retrieves a file by ID.
func (s *Store) GetByID(ctx context.Context, id int) (*models.File, error) {
	f, err := scanFile(s.db.QueryRow(ctx, selectFile+` WHERE f.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("File not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", id, err)
	}
	return &f, nil
}

// ListFilter narrows List.
type ListFilter struct {
	FolderID  *int // used only when FolderSet
	FolderSet bool // true = filter by FolderID (nil FolderID = root-level files)
	Category  string
	Search    string
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns files newest first. Category "all" or blank means any
// category; Search matches the original name or description, ignoring case.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]models.File, error) {
	var (
		where []string
		args  []any
	)
	if filter.FolderSet {
		args = append(args, filter.FolderID)
		where = append(where, fmt.Sprintf(`f."folderId" IS NOT DISTINCT FROM $%d::int`, len(args)))
	}
	if filter.Category != "" && filter.Category != "all" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf(`f.category = $%d`, len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(`(f."originalName" ILIKE $%d OR f.description ILIKE $%d)`, n, n))
	}

	sql := selectFile
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY f."createdAt" DESC, f.id DESC`

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files, err := collectFiles(rows)
	if err != nil {
		return nil, fmt.Errorf("scan files: %w", err)
	}
	return files, nil
}

// ListInFolder returns the files of one folder in rank order.
func (s *Store) ListInFolder(ctx context.Context, folderID int) ([]models.File, error) {
	rows, err := s.db.Query(ctx, selectFile+` WHERE f."folderId" = $1 ORDER BY f."order", f.id`, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files in folder %d: %w", folderID, err)
	}
	files, err := collectFiles(rows)
	if err != nil {
		return nil, fmt.Errorf("scan files: %w", err)
	}
	return files, nil
}

// ListPlaced returns every file that sits in a folder, grouped by folder id,
// newest first within each group.
func (s *Store) ListPlaced(ctx context.Context) (map[int][]models.File, error) {
	rows, err := s.db.Query(ctx, selectFile+` WHERE f."folderId" IS NOT NULL ORDER BY f."createdAt" DESC, f.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list placed files: %w", err)
	}
	files, err := collectFiles(rows)
	if err != nil {
		return nil, fmt.Errorf("scan files: %w", err)
	}

	byFolder := make(map[int][]models.File)
	for _, f := range files {
		byFolder[*f.FolderID] = append(byFolder[*f.FolderID], f)
	}
	return byFolder, nil
}

// UpdateInput contains the fields that can be changed on a file record.
// Nil pointers leave the field unchanged.
type UpdateInput struct {
	Description *string
	Category    *string
	FolderID    *int
	SetFolder   bool // apply FolderID even when nil (move to root)
}

// Update changes the metadata of a file. Changing the folder here does not
// re-rank; use Move for that.
func (s *Store) Update(ctx context.Context, id int, input UpdateInput) (*models.File, error) {
	sets := []string{`"updatedAt" = now()`}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(`%s = $%d`, col, len(args)))
	}
	if input.Description != nil {
		add("description", *input.Description)
	}
	if input.Category != nil {
		add("category", *input.Category)
	}
	if input.SetFolder {
		add(`"folderId"`, input.FolderID)
	}

	tag, err := s.db.Exec(ctx, `UPDATE files SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		if pgdb.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("Folder not found")
		}
		return nil, fmt.Errorf("update file %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("File not found")
	}
	return s.GetByID(ctx, id)
}

// Move places a file in folderID (nil = root) at rank newOrder and re-ranks
// the other files there in the same transaction.
func (s *Store) Move(ctx context.Context, id int, folderID *int, newOrder int) (*models.File, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	err := txn.Run(ctx, s.db, nil, func(tx pgx.Tx) error {
		if folderID != nil {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM folders WHERE id = $1)`, *folderID).Scan(&exists); err != nil {
				return fmt.Errorf("check folder %d: %w", *folderID, err)
			}
			if !exists {
				return apperr.NotFound("Folder not found")
			}
		}
		_, err := scope.Move(ctx, tx, id, folderID, newOrder)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a file record. The caller removes the stored content.
func (s *Store) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("File not found")
	}
	return nil
}

// CategoryCount is one row of Stats.Categories.
type CategoryCount struct {
	Category *string `json:"category"`
	Count    int     `json:"count"`
}

// Stats summarises the library.
type Stats struct {
	TotalFiles int             `json:"totalFiles"`
	TotalSize  int64           `json:"totalSize"`
	Categories []CategoryCount `json:"categories"`
}

// Stats returns file counts and total size overall and per category.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.db.QueryRow(ctx, `SELECT count(*), COALESCE(SUM("fileSize"), 0)::bigint FROM files`).
		Scan(&st.TotalFiles, &st.TotalSize); err != nil {
		return nil, fmt.Errorf("file totals: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT category, count(*) FROM files GROUP BY category ORDER BY category NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("file categories: %w", err)
	}
	st.Categories, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (CategoryCount, error) {
		var c CategoryCount
		err := row.Scan(&c.Category, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return &st, nil
}
