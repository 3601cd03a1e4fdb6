package domain

import "time"

// Registered account. PasswordHash is a bcrypt hash, never the plain password.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// A labelled location a user keeps for quick journey entry.
type SavedLocation struct {
	ID        int64
	UserID    int64
	Label     string
	Postcode  string
	Coordinates
	CreatedAt time.Time
}
