// Package models defines server-side data models persisted in the database.
package models

// Account is an identity record. It owns zero or more Model records.
// PasswordHash is a bcrypt hash and never leaves the server.
type Account struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
