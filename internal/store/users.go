package store

import (
	"context"
	"fmt"
	"sync"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

type UsersAPI interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, input models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, input models.UserInput) (*models.User, error)
	UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// UserStore is the admin user list. Create and update replace records
// wholesale; UpdateUserStatus touches only the status field.
type UserStore struct {
	api    UsersAPI
	logger *zap.Logger

	mu       sync.RWMutex
	entities map[string]models.User
	order    []string
	status   opStatus
}

func NewUserStore(api UsersAPI, logger *zap.Logger) *UserStore {
	return &UserStore{
		api:      api,
		logger:   logger,
		entities: make(map[string]models.User),
	}
}

func (s *UserStore) FetchUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	users, err := s.api.ListUsers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch users"))
		s.logger.Error("failed to fetch users", zap.Error(err))
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	s.entities = make(map[string]models.User, len(users))
	s.order = make([]string, 0, len(users))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		s.put(u.Clone())
		out = append(out, u.Clone())
	}
	s.status.end()

	return out, nil
}

func (s *UserStore) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	u, err := s.api.CreateUser(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to create user"))
		s.logger.Error("failed to create user",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.put(u.Clone())
	s.status.end()
	return u.Clone(), nil
}

func (s *UserStore) UpdateUser(ctx context.Context, userID string, input models.UserInput) (models.User, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	u, err := s.api.UpdateUser(ctx, userID, input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to update user"))
		s.logger.Error("failed to update user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	s.put(u.Clone())
	s.status.end()
	return u.Clone(), nil
}

// UpdateUserStatus patches the status of userID. Only the cached status field
// is changed, whatever else the server sends back.
func (s *UserStore) UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) (models.User, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	resp, err := s.api.UpdateUserStatus(ctx, userID, status)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to update user status"))
		s.logger.Error("failed to update user status",
			zap.String("user_id", userID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return models.User{}, fmt.Errorf("update user status: %w", err)
	}

	u, ok := s.entities[userID]
	if !ok {
		if resp == nil {
			s.status.end()
			return models.User{}, ErrNotFound
		}
		u = resp.Clone()
	}
	u.Status = status
	s.put(u)
	s.status.end()

	return u.Clone(), nil
}

func (s *UserStore) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	err := s.api.DeleteUser(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to delete user"))
		s.logger.Error("failed to delete user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("delete user: %w", err)
	}

	delete(s.entities, userID)
	s.order = removeID(s.order, userID)
	s.status.end()
	return nil
}

func (s *UserStore) User(userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.entities[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u.Clone(), nil
}

// Users returns every cached user in server order, newly created ones last.
func (s *UserStore) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id].Clone())
	}
	return out
}

func (s *UserStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.inflight > 0
}

func (s *UserStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.err
}

func (s *UserStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.err = ""
}

// Caller holds mu.
func (s *UserStore) put(u models.User) {
	if _, ok := s.entities[u.ID]; !ok {
		s.order = append(s.order, u.ID)
	}
	s.entities[u.ID] = u
}
