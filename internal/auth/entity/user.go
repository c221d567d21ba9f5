package entity

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	DateJoined   time.Time
}

// Token is the single API key of a user. It survives until logout.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}
