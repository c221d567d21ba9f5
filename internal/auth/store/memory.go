package store

import (
	"context"
	"sync"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]entity.User
	tokens map[string]entity.Token
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[int64]entity.User),
		tokens: make(map[string]entity.Token),
	}
}

func (s *InMemoryStore) CreateUser(ctx context.Context, u entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ID == u.ID || existing.Username == u.Username {
			return usecase.ErrDuplicate
		}
		if u.Email != "" && existing.Email == u.Email {
			return usecase.ErrDuplicate
		}
	}

	s.users[u.ID] = u
	return nil
}

func (s *InMemoryStore) GetUserByID(ctx context.Context, id int64) (entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return entity.User{}, pkgerror.ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) GetUserByUsername(ctx context.Context, username string) (entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return entity.User{}, pkgerror.ErrNotFound
}

func (s *InMemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != "" && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) CreateToken(ctx context.Context, t entity.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[t.Key]; ok {
		return usecase.ErrDuplicate
	}
	for _, existing := range s.tokens {
		if existing.UserID == t.UserID {
			return usecase.ErrDuplicate
		}
	}

	s.tokens[t.Key] = t
	return nil
}

func (s *InMemoryStore) GetToken(ctx context.Context, key string) (entity.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[key]
	if !ok {
		return entity.Token{}, pkgerror.ErrNotFound
	}
	return t, nil
}

func (s *InMemoryStore) GetTokenByUser(ctx context.Context, userID int64) (entity.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tokens {
		if t.UserID == userID {
			return t, nil
		}
	}
	return entity.Token{}, pkgerror.ErrNotFound
}

func (s *InMemoryStore) DeleteToken(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[key]; !ok {
		return pkgerror.ErrNotFound
	}
	delete(s.tokens, key)
	return nil
}
