// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"

	"github.com/dalemusser/stratadmin/internal/app/store/material"
	userstore "github.com/dalemusser/stratadmin/internal/app/store/users"
	"github.com/dalemusser/stratadmin/internal/app/system/authutil"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"go.uber.org/zap"
)

// DefaultPassword is the password given to the demo users.
const DefaultPassword = "admin123"

// SeedUser is a demo account.
type SeedUser struct {
	Email string
	Name  string
}

// DefaultUsers are the demo accounts created by SeedAll.
var DefaultUsers = []SeedUser{
	{Email: "admin@example.com", Name: "Administrator"},
	{Email: "manager@example.com", Name: "Manager"},
	{Email: "staff@example.com", Name: "Staff"},
}

// Result reports what a seed run did.
type Result struct {
	Users            int // created or reset
	MaterialsCreated int
	MaterialsSkipped int // code already present
}

// SeedAll creates the demo users with DefaultPassword and the sample
// materials. It can be run repeatedly: users are reset, existing material
// codes are left alone.
func SeedAll(ctx context.Context, db pgdb.Querier, logger *zap.Logger) (Result, error) {
	var res Result

	n, err := seedUsers(ctx, db, DefaultPassword, logger)
	if err != nil {
		return res, err
	}
	res.Users = n

	res.MaterialsCreated, res.MaterialsSkipped, err = seedMaterials(ctx, db, logger)
	return res, err
}

func seedUsers(ctx context.Context, db pgdb.Querier, password string, logger *zap.Logger) (int, error) {
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return 0, err
	}

	store := userstore.New(db)
	for _, su := range DefaultUsers {
		u, err := store.Upsert(ctx, su.Email, su.Name, hash)
		if err != nil {
			logger.Error("failed to seed user", zap.String("email", su.Email), zap.Error(err))
			return 0, err
		}
		logger.Debug("seeded user", zap.String("email", u.Email), zap.Int("user_id", u.ID))
	}
	return len(DefaultUsers), nil
}

func ptr[T any](v T) *T { return &v }

func sampleMaterials() []material.Input {
	return []material.Input{
		{
			Code: ptr("MAT-001"), Name: ptr("Steel Bolt M8"),
			Category: ptr("Hardware"), Department: ptr("Maintenance"),
			Quantity: ptr(500), Unit: ptr("pcs"), Price: ptr(0.25),
		},
		{
			Code: ptr("MAT-002"), Name: ptr("Copper Wire 2.5mm"),
			Category: ptr("Electrical"), Department: ptr("Engineering"),
			Quantity: ptr(120), Unit: ptr("m"), Price: ptr(1.80),
		},
		{
			Code: ptr("MAT-003"), Name: ptr("Safety Gloves"),
			Category: ptr("PPE"), Department: ptr("Operations"),
			Quantity: ptr(60), Unit: ptr("pairs"), Price: ptr(4.50),
		},
	}
}

func seedMaterials(ctx context.Context, db pgdb.Querier, logger *zap.Logger) (created, skipped int, err error) {
	store := material.New(db)
	for _, in := range sampleMaterials() {
		_, err := store.Create(ctx, in)
		if errors.Is(err, material.ErrDuplicateCode) {
			skipped++
			continue
		}
		if err != nil {
			logger.Error("failed to seed material", zap.String("code", *in.Code), zap.Error(err))
			return created, skipped, err
		}
		created++
	}

	if created > 0 {
		logger.Info("seeded materials", zap.Int("created", created))
	}
	return created, skipped, nil
}
