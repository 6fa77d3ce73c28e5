package domain

import "time"

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// IsZero reports whether no user is attached.
func (i Identity) IsZero() bool {
	return i.UserID == 0
}
