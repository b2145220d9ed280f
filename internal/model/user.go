// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// Password holds the bcrypt hash, never the plaintext. The `json:"-"` tag keeps
// it out of every JSON response (including the admin console), so the hash can
// only ever leave the database through code that asks for it explicitly.
type User struct {
	ID        int64     `json:"id"        db:"id"`
	Email     string    `json:"email"     db:"email"`
	Username  string    `json:"username"  db:"username"`
	Password  string    `json:"-"         db:"password"`
	IsAdmin   bool      `json:"isAdmin"   db:"is_admin"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// IsAdmin reports whether u may use the admin console. A nil user is an
// anonymous caller and is never an admin.
func IsAdmin(u *User) bool {
	return u != nil && u.IsAdmin
}
