package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

// ErrDuplicate is returned by a Store when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

const (
	maxUsernameLen = 150
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

type Store interface {
	CreateUser(ctx context.Context, u entity.User) error
	GetUserByID(ctx context.Context, id int64) (entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (entity.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	CreateToken(ctx context.Context, t entity.Token) error
	GetToken(ctx context.Context, key string) (entity.Token, error)
	GetTokenByUser(ctx context.Context, userID int64) (entity.Token, error)
	DeleteToken(ctx context.Context, key string) error
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store  Store
	Hasher Hasher
	ID     pkguid.NumberID
	Token  pkguid.StringID
	Clock  Clock
}

type Usecase struct {
	store  Store
	hasher Hasher
	id     pkguid.NumberID
	token  pkguid.StringID
	clock  Clock
}

func New(dep Dependency) *Usecase {
	hasher := dep.Hasher
	if hasher == nil {
		hasher = Bcrypt{}
	}

	token := dep.Token
	if token == nil {
		token = pkguid.NewToken()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Usecase{
		store:  dep.Store,
		hasher: hasher,
		id:     dep.ID,
		token:  token,
		clock:  clock,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Register creates a user and returns its first token.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	fields := map[string]string{}
	switch {
	case in.Username == "":
		fields["username"] = "This field is required."
	case utf8.RuneCountInString(in.Username) > maxUsernameLen:
		fields["username"] = "Ensure this field has no more than 150 characters."
	}
	switch {
	case in.Password == "":
		fields["password"] = "This field is required."
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		fields["password"] = "Ensure this field has at least 8 characters."
	case len(in.Password) > maxPasswordLen:
		fields["password"] = "Ensure this field has no more than 72 bytes."
	}
	if in.PasswordConfirm != "" && in.PasswordConfirm != in.Password {
		fields["password_confirm"] = "Passwords don't match."
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			fields["email"] = "Enter a valid email address."
		}
	}

	if _, ok := fields["username"]; !ok {
		_, err := u.store.GetUserByUsername(ctx, in.Username)
		switch {
		case err == nil:
			fields["username"] = "Username already exists."
		case !errors.Is(err, pkgerror.ErrNotFound):
			return AuthResult{}, normalizeErr(err)
		}
	}
	if _, ok := fields["email"]; !ok && in.Email != "" {
		exists, err := u.store.EmailExists(ctx, in.Email)
		if err != nil {
			return AuthResult{}, normalizeErr(err)
		}
		if exists {
			fields["email"] = "Email already exists."
		}
	}

	if len(fields) > 0 {
		return AuthResult{}, validationErr(fields)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, pkgerror.NewServer(err)
	}

	user := entity.User{
		ID:           u.id.Generate(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DateJoined:   u.clock.Now().UTC(),
	}
	if err := u.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return AuthResult{}, validationErr(map[string]string{"username": "Username already exists."})
		}
		return AuthResult{}, normalizeErr(err)
	}

	token, err := u.tokenFor(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)

	return AuthResult{Token: token.Key, Username: user.Username}, nil
}

// Login checks credentials and returns the user's token, creating it when
// the user has none.
func (u *Usecase) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return AuthResult{}, errInvalidCredentials()
	}

	user, err := u.store.GetUserByUsername(ctx, username)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return AuthResult{}, errInvalidCredentials()
	}
	if err != nil {
		return AuthResult{}, normalizeErr(err)
	}

	if err := u.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, ErrPasswordMismatch) {
			slog.WarnContext(ctx, "failed to compare password hash", "user_id", user.ID, "error", err)
		}
		return AuthResult{}, errInvalidCredentials()
	}

	token, err := u.tokenFor(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: token.Key, Username: user.Username}, nil
}

// Logout revokes the token. The next login issues a new one.
func (u *Usecase) Logout(ctx context.Context, token string) error {
	err := u.store.DeleteToken(ctx, token)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("No active token found", pkgerror.CodeInvalidFormat)
	}
	if err != nil {
		return normalizeErr(err)
	}
	return nil
}

func (u *Usecase) Profile(ctx context.Context, userID int64) (Profile, error) {
	user, err := u.store.GetUserByID(ctx, userID)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return Profile{}, pkgerror.NewBusiness("user not found", pkgerror.CodeNotFound)
	}
	if err != nil {
		return Profile{}, normalizeErr(err)
	}

	p := Profile{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		DateJoined: user.DateJoined,
	}

	token, err := u.store.GetTokenByUser(ctx, userID)
	switch {
	case err == nil:
		p.Token = token.Key
	case !errors.Is(err, pkgerror.ErrNotFound):
		return Profile{}, normalizeErr(err)
	}

	return p, nil
}

// Authenticate implements pkgauth.Authenticator.
func (u *Usecase) Authenticate(ctx context.Context, key string) (pkgauth.Principal, error) {
	token, err := u.store.GetToken(ctx, key)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgauth.Principal{}, pkgerror.NewBusiness("Invalid token.", pkgerror.CodeUnauthorized)
	}
	if err != nil {
		return pkgauth.Principal{}, err
	}

	user, err := u.store.GetUserByID(ctx, token.UserID)
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgauth.Principal{}, pkgerror.NewBusiness("User inactive or deleted.", pkgerror.CodeUnauthorized)
	}
	if err != nil {
		return pkgauth.Principal{}, err
	}

	return pkgauth.Principal{UserID: user.ID, Username: user.Username, Token: token.Key}, nil
}

func (u *Usecase) tokenFor(ctx context.Context, userID int64) (entity.Token, error) {
	token, err := u.store.GetTokenByUser(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, pkgerror.ErrNotFound) {
		return entity.Token{}, normalizeErr(err)
	}

	token = entity.Token{Key: u.token.Generate(), UserID: userID, CreatedAt: u.clock.Now().UTC()}
	err = u.store.CreateToken(ctx, token)
	if errors.Is(err, ErrDuplicate) {
		// a concurrent login created it first
		token, err = u.store.GetTokenByUser(ctx, userID)
	}
	if err != nil {
		return entity.Token{}, normalizeErr(err)
	}

	return token, nil
}

func errInvalidCredentials() error {
	return pkgerror.NewBusiness("Invalid credentials", pkgerror.CodeUnauthorized)
}

func validationErr(fields map[string]string) error {
	return pkgerror.WithFields(pkgerror.NewBusiness("validation error", pkgerror.CodeInvalidFormat), fields)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
