package usecase

import "time"

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token    string
	Username string
}

type Profile struct {
	ID         int64
	Username   string
	Email      string
	DateJoined time.Time
	Token      string
}
