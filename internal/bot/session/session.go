// Package session keeps one set of marketplace stores per linked Telegram user.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jobmarket-bot/internal/api/marketplace"
	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/store"

	"go.uber.org/zap"
)

var ErrNotLinked = errors.New("telegram account is not linked")

type AccountStore interface {
	GetAccount(ctx context.Context, telegramID int64) (*models.LinkedAccount, error)
	LinkAccount(ctx context.Context, acc *models.LinkedAccount) error
	UnlinkAccount(ctx context.Context, telegramID int64) error
}

// Session is the marketplace view of one Telegram user.
type Session struct {
	Account models.LinkedAccount
	Role    models.Role
	Client  *marketplace.Client
	Stores  *store.Stores
}

// UserID is the marketplace id of the session user.
func (s *Session) UserID() string {
	return s.Account.MarketplaceUserID
}

// Scope is the view the session's role works with.
func (s *Session) Scope() store.Scope {
	switch s.Role {
	case models.RoleAdmin:
		return store.ScopeAdmin
	case models.RoleRecruiter:
		return store.ScopeRecruiter
	default:
		return store.ScopeUser
	}
}

// ScopeID is the id passed to scoped fetches; the admin view has none.
func (s *Session) ScopeID() string {
	if s.Role == models.RoleAdmin {
		return ""
	}
	return s.Account.MarketplaceUserID
}

// FetchJobs refreshes the job view of the session's role.
func (s *Session) FetchJobs(ctx context.Context) ([]models.Job, error) {
	return s.Stores.Jobs.Fetch(ctx, s.Scope(), s.ScopeID())
}

// FetchApplications refreshes the application view of the session's role.
func (s *Session) FetchApplications(ctx context.Context) ([]models.Application, error) {
	switch s.Role {
	case models.RoleAdmin:
		return s.Stores.Applications.FetchAdmin(ctx)
	case models.RoleRecruiter:
		return s.Stores.Applications.FetchForRecruiter(ctx, s.UserID())
	default:
		return s.Stores.Applications.FetchForUser(ctx, s.UserID())
	}
}

// Registry creates sessions lazily from linked accounts and keeps them for
// the life of the process.
type Registry struct {
	base     *marketplace.Client
	accounts AccountStore
	opts     store.Options
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewRegistry builds a registry. opts is used as a template for every
// session; CurrentUserID is filled in per account.
func NewRegistry(base *marketplace.Client, accounts AccountStore, opts store.Options, logger *zap.Logger) *Registry {
	return &Registry{
		base:     base,
		accounts: accounts,
		opts:     opts,
		logger:   logger,
		sessions: make(map[int64]*Session),
	}
}

// Get returns the session of telegramID, or ErrNotLinked.
func (r *Registry) Get(ctx context.Context, telegramID int64) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[telegramID]
	r.mu.Unlock()
	if ok {
		return sess, nil
	}

	acc, err := r.accounts.GetAccount(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acc == nil {
		return nil, ErrNotLinked
	}

	return r.put(*acc), nil
}

// Link verifies token against the marketplace and stores the link.
func (r *Registry) Link(ctx context.Context, telegramID int64, token string) (*Session, error) {
	client := r.base.WithToken(token)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	acc := models.LinkedAccount{
		TelegramID:        telegramID,
		MarketplaceUserID: user.ID,
		Role:              string(user.Role),
		APIToken:          token,
		NotifyEnabled:     true,
	}
	if err := r.accounts.LinkAccount(ctx, &acc); err != nil {
		return nil, err
	}

	r.logger.Info("session linked",
		zap.Int64("telegram_id", telegramID),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return r.put(acc), nil
}

func (r *Registry) Unlink(ctx context.Context, telegramID int64) error {
	if err := r.accounts.UnlinkAccount(ctx, telegramID); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, telegramID)
	r.mu.Unlock()

	return nil
}

// put replaces any existing session of the account's Telegram user.
func (r *Registry) put(acc models.LinkedAccount) *Session {
	opts := r.opts
	opts.CurrentUserID = acc.MarketplaceUserID

	client := r.base.WithToken(acc.APIToken)
	sess := &Session{
		Account: acc,
		Role:    models.Role(acc.Role),
		Client:  client,
		Stores: store.New(client, opts, r.logger.With(
			zap.Int64("telegram_id", acc.TelegramID),
		)),
	}

	r.mu.Lock()
	r.sessions[acc.TelegramID] = sess
	r.mu.Unlock()

	return sess
}
