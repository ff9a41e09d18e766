package domain

import "time"

// User is the domain model for account owners. The password hash is the
// only credential material ever stored.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
