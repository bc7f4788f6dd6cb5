// Package services holds the application operations behind the HTTP routes.
package services

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Caller is the authenticated identity taken from the request token.
type Caller struct {
	ID    int64
	Email string
	Role  string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
