package domain

import "time"

// User is an account known to the identity service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MinPasswordLength is the shortest password accepted on sign-up.
const MinPasswordLength = 6
