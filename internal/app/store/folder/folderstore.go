// Package folder provides storage for the folder tree.
//
// Folders form a tree through parentId. The schema cascades deletes down the
// tree and sets files' folderId to NULL, so deleting a folder removes its
// subtree and moves its files to the root.
package folder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	filestore "github.com/dalemusser/stratadmin/internal/app/store/file"
	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/ordering"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/app/system/txn"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

// ErrCircular is returned when a folder would become its own ancestor.
var ErrCircular = apperr.Invalid("Cannot move folder: would create circular reference")

// siblings of a folder share its parentId (NULL = root).
var scope = ordering.Scope{Table: "folders", ParentColumn: "parentId"}

const selectFolderWithCounts = `
	SELECT f.id, f.name, f."parentId", f."order", f."createdAt", f."updatedAt",
		(SELECT count(*) FROM folders c WHERE c."parentId" = f.id),
		(SELECT count(*) FROM files x WHERE x."folderId" = f.id)
	FROM folders f`

// Store provides access to the folders table.
type Store struct {
	db    pgdb.DB
	files *filestore.Store
}

// New creates a new folder store.
func New(db pgdb.DB) *Store {
	return &Store{db: db, files: filestore.New(db)}
}

// Summary is a folder with its direct child and file counts.
type Summary struct {
	models.Folder
	Count models.FolderCounts `json:"_count"`
}

// Detail is a folder with its parent, ordered children and ordered files.
type Detail struct {
	models.Folder
	Parent   *models.FolderRef `json:"parent"`
	Children []Summary         `json:"children"`
	Files    []models.File     `json:"files"`
}

func scanSummary(row pgx.Row) (Summary, error) {
	var s Summary
	err := row.Scan(&s.ID, &s.Name, &s.ParentID, &s.Order, &s.CreatedAt, &s.UpdatedAt,
		&s.Count.Children, &s.Count.Files)
	return s, err
}

func (s *Store) querySummaries(ctx context.Context, q pgdb.Querier, where string, args ...any) ([]Summary, error) {
	rows, err := q.Query(ctx, selectFolderWithCounts+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		return scanSummary(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan folders: %w", err)
	}
	return out, nil
}

// GetByID retrieves a folder by ID.
func (s *Store) GetByID(ctx context.Context, id int) (*models.Folder, error) {
	var f models.Folder
	err := s.db.QueryRow(ctx, `
		SELECT id, name, "parentId", "order", "createdAt", "updatedAt"
		FROM folders WHERE id = $1`, id).
		Scan(&f.ID, &f.Name, &f.ParentID, &f.Order, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Folder not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get folder %d: %w", id, err)
	}
	return &f, nil
}

// Get returns a folder with its parent, children (with counts) and files,
// children and files in rank order.
func (s *Store) Get(ctx context.Context, id int) (*Detail, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Folder: *f}

	if f.ParentID != nil {
		parent, err := s.GetByID(ctx, *f.ParentID)
		switch {
		case err == nil:
			d.Parent = &models.FolderRef{ID: parent.ID, Name: parent.Name}
		case !apperr.IsNotFound(err):
			return nil, err
		}
	}

	d.Children, err = s.querySummaries(ctx, s.db, `WHERE f."parentId" = $1 ORDER BY f."order", f.id`, id)
	if err != nil {
		return nil, err
	}
	d.Files, err = s.files.ListInFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Tree returns the whole folder tree. When includeFiles is set each node
// carries its files, newest first.
func (s *Store) Tree(ctx context.Context, includeFiles bool) ([]*Node, error) {
	flat, err := s.querySummaries(ctx, s.db, `ORDER BY f."order", f.id`)
	if err != nil {
		return nil, err
	}

	var files map[int][]models.File
	if includeFiles {
		files, err = s.files.ListPlaced(ctx)
		if err != nil {
			return nil, err
		}
	}
	return BuildTree(flat, files), nil
}

// Path returns the breadcrumb from the root down to id. The walk stops
// quietly at a missing parent; an unknown id yields an empty path.
func (s *Store) Path(ctx context.Context, id int) ([]models.FolderRef, error) {
	var path []models.FolderRef
	seen := make(map[int]bool)

	current := &id
	for current != nil && !seen[*current] {
		seen[*current] = true
		f, err := s.GetByID(ctx, *current)
		if apperr.IsNotFound(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		path = append([]models.FolderRef{{ID: f.ID, Name: f.Name}}, path...)
		current = f.ParentID
	}
	if path == nil {
		path = []models.FolderRef{}
	}
	return path, nil
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name     string
	ParentID *int // nil = root folder
}

// Create inserts a folder ranked after its current siblings.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Invalid("Folder name required")
	}

	var f models.Folder
	err := s.db.QueryRow(ctx, `
		INSERT INTO folders (name, "parentId", "order")
		VALUES ($1, $2,
			(SELECT COALESCE(MAX("order") + 1, 0) FROM folders WHERE "parentId" IS NOT DISTINCT FROM $2::int))
		RETURNING id, name, "parentId", "order", "createdAt", "updatedAt"`,
		name, input.ParentID,
	).Scan(&f.ID, &f.Name, &f.ParentID, &f.Order, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if pgdb.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("Parent folder not found")
		}
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	return &f, nil
}

// UpdateInput contains the fields that can be changed on a folder.
type UpdateInput struct {
	Name      *string
	ParentID  *int
	SetParent bool // apply ParentID even when nil (move to root)
}

// Update renames and/or reparents a folder. Reparenting is cycle-checked
// first; it keeps the folder's rank (use Move to re-rank).
func (s *Store) Update(ctx context.Context, id int, input UpdateInput) (*models.Folder, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	sets := []string{`"updatedAt" = now()`}
	args := []any{id}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Invalid("Folder name required")
		}
		args = append(args, name)
		sets = append(sets, fmt.Sprintf(`name = $%d`, len(args)))
	}
	if input.SetParent {
		circular, err := s.WouldCreateCycle(ctx, id, input.ParentID)
		if err != nil {
			return nil, err
		}
		if circular {
			return nil, ErrCircular
		}
		args = append(args, input.ParentID)
		sets = append(sets, fmt.Sprintf(`"parentId" = $%d`, len(args)))
	}

	var f models.Folder
	err := s.db.QueryRow(ctx, `UPDATE folders SET `+strings.Join(sets, ", ")+` WHERE id = $1
		RETURNING id, name, "parentId", "order", "createdAt", "updatedAt"`, args...).
		Scan(&f.ID, &f.Name, &f.ParentID, &f.Order, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Folder not found")
	}
	if err != nil {
		if pgdb.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("Parent folder not found")
		}
		return nil, fmt.Errorf("update folder %d: %w", id, err)
	}
	return &f, nil
}

// Move places a folder under parentID (nil = root) at rank newOrder and
// re-ranks the other children of that parent in one transaction. It returns
// the refreshed folder detail.
func (s *Store) Move(ctx context.Context, id int, parentID *int, newOrder int) (*Detail, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if parentID != nil {
		circular, err := s.WouldCreateCycle(ctx, id, parentID)
		if err != nil {
			return nil, err
		}
		if circular {
			return nil, ErrCircular
		}
		if _, err := s.GetByID(ctx, *parentID); err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.NotFound("Parent folder not found")
			}
			return nil, err
		}
	}

	err := txn.Run(ctx, s.db, nil, func(tx pgx.Tx) error {
		_, err := scope.Move(ctx, tx, id, parentID, newOrder)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a folder. Child folders go with it; its files move to the root.
func (s *Store) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete folder %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Folder not found")
	}
	return nil
}

// WouldCreateCycle reports whether making newParentID the parent of folderID
// would put folderID inside its own subtree.
func (s *Store) WouldCreateCycle(ctx context.Context, folderID int, newParentID *int) (bool, error) {
	return wouldCreateCycle(ctx, folderID, newParentID, s.parentOf)
}

// parentOf returns the parent of id and whether id exists.
func (s *Store) parentOf(ctx context.Context, id int) (*int, bool, error) {
	var parent *int
	err := s.db.QueryRow(ctx, `SELECT "parentId" FROM folders WHERE id = $1`, id).Scan(&parent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get parent of folder %d: %w", id, err)
	}
	return parent, true, nil
}
