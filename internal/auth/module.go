package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/inbound"
	"github.com/likhith1253/chemicalanalyzer/internal/auth/store"
	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgconfig"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgdb"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkguid"
)

type Dependency struct {
	Config  pkgconfig.Config
	Router  *pkgrouter.Router
	Context context.Context
	DB      *sqlx.DB
	ID      pkguid.NumberID
}

// New mounts the auth endpoints and returns the Authenticator other modules
// guard their routes with.
func New(dep Dependency) (pkgauth.Authenticator, error) {
	if dep.ID == nil {
		return nil, errors.New("auth: missing id generator")
	}
	if dep.Context == nil {
		dep.Context = context.Background()
	}

	var storage usecase.Store
	if dep.DB != nil {
		if err := pkgdb.Migrate(dep.Context, dep.DB, store.Migrations...); err != nil {
			return nil, err
		}
		storage = store.NewSQLStore(dep.DB)
	} else {
		slog.Warn("auth module is using the in-memory store")
		storage = store.NewInMemoryStore()
	}

	uc := usecase.New(usecase.Dependency{
		Store:  storage,
		Hasher: usecase.Bcrypt{Cost: int(dep.Config.GetInt("modules.auth.bcrypt_cost"))},
		ID:     dep.ID,
		Token:  pkguid.NewToken(),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, pkgauth.Middleware(uc))

	return uc, nil
}
