package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	Password  string    `json:"-"` // bcrypt hash; empty for OAuth-only accounts
	CreatedAt time.Time `json:"createdAt"`
}

// HasPassword reports whether the account can sign in with credentials.
func (u User) HasPassword() bool { return u.Password != "" }
