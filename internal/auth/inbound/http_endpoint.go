package inbound

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
)

const maxBodyBytes = 64 << 10

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Register(ctx context.Context, r *http.Request) (any, error) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	result, err := h.uc.Register(ctx, usecase.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{AuthResponse{Token: result.Token, Username: result.Username}}, nil
}

func (h *HTTPEndpoint) Login(ctx context.Context, r *http.Request) (any, error) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	result, err := h.uc.Login(ctx, usecase.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return AuthResponse{Token: result.Token, Username: result.Username}, nil
}

func (h *HTTPEndpoint) Logout(ctx context.Context, r *http.Request) (any, error) {
	p, ok := pkgauth.FromContext(ctx)
	if !ok {
		return nil, pkgerror.NewBusiness("authentication credentials were not provided", pkgerror.CodeUnauthorized)
	}

	if err := h.uc.Logout(ctx, p.Token); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

func (h *HTTPEndpoint) Profile(ctx context.Context, r *http.Request) (any, error) {
	p, ok := pkgauth.FromContext(ctx)
	if !ok {
		return nil, pkgerror.NewBusiness("authentication credentials were not provided", pkgerror.CodeUnauthorized)
	}

	profile, err := h.uc.Profile(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	return toProfileResponse(profile), nil
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return pkgerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return pkgerror.NewInvalidFormat()
	}
	return nil
}
