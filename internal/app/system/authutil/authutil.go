// Package authutil holds password hashing and the local login check.
package authutil

import "github.com/dalemusser/stratadmin/internal/domain/models"

// CanPasswordLogin reports whether password unlocks u. Accounts created from
// identity-provider sign-ins store models.OktaManagedPassword and never match.
func CanPasswordLogin(u *models.User, password string) bool {
	if u == nil || u.IsOktaManaged() || password == "" {
		return false
	}
	return CheckPassword(password, u.Password)
}
