package inbound

import (
	"context"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (usecase.AuthResult, error)
	Login(ctx context.Context, in usecase.LoginInput) (usecase.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID int64) (usecase.Profile, error)
}

// RegisterHTTPEndpoint mounts the auth API. authMw guards logout and profile.
func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, authMw pkgrouter.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/auth/register", end.Register)
	r.POST("/api/auth/login", end.Login)

	r.POST("/api/auth/logout", end.Logout, authMw)
	r.GET("/api/auth/profile", end.Profile, authMw)
}
