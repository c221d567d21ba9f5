package inbound

import (
	"net/http"
	"strconv"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type RegisterResponse struct {
	AuthResponse
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

func (RegisterResponse) Message() string {
	return "user registered"
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logout successful"
}

type ProfileResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	DateJoined string `json:"date_joined"`
	Token      string `json:"token,omitempty"`
}

func toProfileResponse(p usecase.Profile) ProfileResponse {
	return ProfileResponse{
		ID:         strconv.FormatInt(p.ID, 10),
		Username:   p.Username,
		Email:      p.Email,
		DateJoined: p.DateJoined.UTC().Format("2006-01-02 15:04:05"),
		Token:      p.Token,
	}
}
