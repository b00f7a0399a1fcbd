package userstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/dalemusser/stratadmin/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "  Test@Example.COM ", " Test User ", "hash")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() did not assign ID")
	}
	if created.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", created.Email, "test@example.com")
	}
	if created.Name != "Test User" {
		t.Errorf("Name = %q, want %q", created.Name, "Test User")
	}
	if created.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	_, err = store.Create(ctx, "TEST@example.com", "Other", "hash")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() duplicate error = %v, want %v", err, ErrDuplicateEmail)
	}

	if _, err := store.Create(ctx, "  ", "Nobody", "hash"); !apperr.IsInvalid(err) {
		t.Errorf("Create(blank email) error = %v, want invalid", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "find@example.com", "Find Me", "hash")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetByEmail(ctx, "FIND@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %d, want %d", got.ID, created.ID)
	}

	byID, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Email != "find@example.com" {
		t.Errorf("GetByID() Email = %q", byID.Email)
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); !apperr.IsNotFound(err) {
		t.Errorf("GetByEmail(missing) error = %v, want not found", err)
	}
}

func TestStore_FindOrCreateOkta(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, created, err := store.FindOrCreateOkta(ctx, "okta@example.com", "Okta User")
	if err != nil {
		t.Fatalf("FindOrCreateOkta() error = %v", err)
	}
	if !created {
		t.Error("FindOrCreateOkta() created = false, want true")
	}
	if u.Password != models.OktaManagedPassword || !u.IsOktaManaged() {
		t.Errorf("Password = %q, want %q", u.Password, models.OktaManagedPassword)
	}

	again, created, err := store.FindOrCreateOkta(ctx, "OKTA@example.com", "Renamed User")
	if err != nil {
		t.Fatalf("FindOrCreateOkta() second error = %v", err)
	}
	if created {
		t.Error("FindOrCreateOkta() second created = true, want false")
	}
	if again.ID != u.ID {
		t.Errorf("ID = %d, want %d", again.ID, u.ID)
	}
	if again.Name != "Renamed User" {
		t.Errorf("Name = %q, want %q", again.Name, "Renamed User")
	}

	// blank provider name keeps the stored one
	kept, _, err := store.FindOrCreateOkta(ctx, "okta@example.com", "")
	if err != nil {
		t.Fatalf("FindOrCreateOkta() third error = %v", err)
	}
	if kept.Name != "Renamed User" {
		t.Errorf("Name = %q, want %q", kept.Name, "Renamed User")
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestStore_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Upsert(ctx, "admin@example.com", "Admin", "h1")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := store.Upsert(ctx, "admin@example.com", "Administrator", "h2")
	if err != nil {
		t.Fatalf("Upsert() second error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID = %d, want %d", second.ID, first.ID)
	}
	if second.Name != "Administrator" || second.Password != "h2" {
		t.Errorf("Upsert() = %+v", second)
	}
}
