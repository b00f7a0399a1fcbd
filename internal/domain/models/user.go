package models

import "time"

// OktaManagedPassword is stored in place of a bcrypt hash for users created
// from identity-provider sign-ins. Such users cannot log in with a password.
const OktaManagedPassword = "OKTA_MANAGED"

// User is an account allowed into the console.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"` // stored lowercase
	Name      string    `json:"name"`
	Password  string    `json:"-"` // bcrypt hash or OktaManagedPassword
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOktaManaged reports whether the account authenticates only through the identity provider.
func (u *User) IsOktaManaged() bool {
	return u.Password == OktaManagedPassword
}
