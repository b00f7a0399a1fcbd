// Package material provides storage for inventory materials.
package material

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

// ListLimit caps List results.
const ListLimit = 200

const selectMaterial = `
	SELECT id, code, name, category, department, quantity, unit, price::float8, "createdAt", "updatedAt"
	FROM materials`

const returningMaterial = `
	RETURNING id, code, name, category, department, quantity, unit, price::float8, "createdAt", "updatedAt"`

// ErrDuplicateCode is returned when a material code is already taken.
var ErrDuplicateCode = apperr.Invalid("A material with this code already exists")

type Store struct {
	q pgdb.Querier
}

func New(q pgdb.Querier) *Store {
	return &Store{q: q}
}

func scanMaterial(row pgx.Row) (*models.Material, error) {
	var m models.Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Category, &m.Department, &m.Quantity, &m.Unit, &m.Price,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Material not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListFilter narrows List. Blank fields are ignored.
type ListFilter struct {
	Department string
	Category   string
	Name       string // case-insensitive substring
}

// List returns the most recently updated materials matching filter.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]models.Material, error) {
	var (
		where []string
		args  []any
	)
	if filter.Department != "" {
		args = append(args, filter.Department)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	sql := selectMaterial
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, ListLimit)
	sql += fmt.Sprintf(` ORDER BY "updatedAt" DESC, id DESC LIMIT $%d`, len(args))

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Material, error) {
		m, err := scanMaterial(row)
		if err != nil {
			return models.Material{}, err
		}
		return *m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan materials: %w", err)
	}
	return out, nil
}

// GetByID loads a material.
func (s *Store) GetByID(ctx context.Context, id int) (*models.Material, error) {
	return scanMaterial(s.q.QueryRow(ctx, selectMaterial+` WHERE id = $1`, id))
}

// Input carries material fields. Nil pointers are left unchanged by Update
// and stored as NULL (or the column default) by Create.
type Input struct {
	Code       *string  `json:"code"`
	Name       *string  `json:"name"`
	Category   *string  `json:"category"`
	Department *string  `json:"department"`
	Quantity   *int     `json:"quantity"`
	Unit       *string  `json:"unit"`
	Price      *float64 `json:"price"`
}

// Create inserts a material. Code and name are required.
func (s *Store) Create(ctx context.Context, in Input) (*models.Material, error) {
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" {
		return nil, apperr.Invalid("Material code required")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Invalid("Material name required")
	}
	qty := 0
	if in.Quantity != nil {
		qty = *in.Quantity
	}

	m, err := scanMaterial(s.q.QueryRow(ctx, `
		INSERT INTO materials (code, name, category, department, quantity, unit, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`+returningMaterial,
		strings.TrimSpace(*in.Code), strings.TrimSpace(*in.Name), in.Category, in.Department, qty, in.Unit, in.Price))
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert material: %w", err)
	}
	return m, nil
}

// Update applies the non-nil fields of in to material id.
func (s *Store) Update(ctx context.Context, id int, in Input) (*models.Material, error) {
	sets := []string{`"updatedAt" = now()`}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Code != nil {
		if strings.TrimSpace(*in.Code) == "" {
			return nil, apperr.Invalid("Material code required")
		}
		add("code", strings.TrimSpace(*in.Code))
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Invalid("Material name required")
		}
		add("name", strings.TrimSpace(*in.Name))
	}
	if in.Category != nil {
		add("category", *in.Category)
	}
	if in.Department != nil {
		add("department", *in.Department)
	}
	if in.Quantity != nil {
		add("quantity", *in.Quantity)
	}
	if in.Unit != nil {
		add("unit", *in.Unit)
	}
	if in.Price != nil {
		add("price", *in.Price)
	}

	m, err := scanMaterial(s.q.QueryRow(ctx,
		`UPDATE materials SET `+strings.Join(sets, ", ")+` WHERE id = $1`+returningMaterial, args...))
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		if apperr.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update material %d: %w", id, err)
	}
	return m, nil
}
