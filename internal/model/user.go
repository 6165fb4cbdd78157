// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash AND NOT Password?
// The plaintext password exists only for the duration of a register/login
// request. What we store (and what this struct carries) is the bcrypt hash.
// The `json:"-"` tag tells encoding/json to NEVER serialize this field, so
// a handler cannot accidentally leak the hash in an API response.
//
// Email is normalized to lowercase before it ever reaches this struct —
// "Alice@X.com" and "alice@x.com" are the same account.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
