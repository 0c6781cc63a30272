package domain

import "time"

type ID string

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// PasswordHash is nil for accounts created through a federated
// identity provider. Those accounts cannot log in with a password.
type User struct {
	ID           ID
	Email        string
	PasswordHash *string
	RoleName     string
	StoreID      *string
	CreatedAt    time.Time
}

func (u User) IsSocialOnly() bool {
	return u.PasswordHash == nil || *u.PasswordHash == ""
}
