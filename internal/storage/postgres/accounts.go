package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobmarket-bot/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

// LinkAccount stores the account, replacing any previous link of the same
// Telegram user.
func (s *Store) LinkAccount(ctx context.Context, acc *models.LinkedAccount) error {
	query := `
		INSERT INTO linked_accounts (
			telegram_id, marketplace_user_id, role, api_token, notify_enabled, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			marketplace_user_id = EXCLUDED.marketplace_user_id,
			role = EXCLUDED.role,
			api_token = EXCLUDED.api_token
	`

	_, err := s.sess.
		InsertBySql(query,
			acc.TelegramID,
			acc.MarketplaceUserID,
			acc.Role,
			acc.APIToken,
			acc.NotifyEnabled,
			time.Now(),
		).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to link account",
			zap.Int64("telegram_id", acc.TelegramID),
			zap.Error(err),
		)
		return fmt.Errorf("link account: %w", err)
	}

	s.logger.Info("account linked",
		zap.Int64("telegram_id", acc.TelegramID),
		zap.String("marketplace_user_id", acc.MarketplaceUserID),
		zap.String("role", acc.Role),
	)

	return nil
}

// GetAccount returns nil, nil when the Telegram user has not linked an account.
func (s *Store) GetAccount(ctx context.Context, telegramID int64) (*models.LinkedAccount, error) {
	var acc models.LinkedAccount

	err := s.sess.
		Select("*").
		From("linked_accounts").
		Where("telegram_id = ?", telegramID).
		LoadOneContext(ctx, &acc)

	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get account",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &acc, nil
}

func (s *Store) GetAccountsToNotify(ctx context.Context) ([]models.LinkedAccount, error) {
	var accounts []models.LinkedAccount

	_, err := s.sess.
		Select("*").
		From("linked_accounts").
		Where("notify_enabled = ?", true).
		OrderBy("last_check NULLS FIRST").
		LoadContext(ctx, &accounts)

	if err != nil {
		s.logger.Error("failed to get accounts to notify", zap.Error(err))
		return nil, fmt.Errorf("get accounts to notify: %w", err)
	}

	s.logger.Debug("accounts to notify", zap.Int("count", len(accounts)))

	return accounts, nil
}

func (s *Store) UpdateLastCheck(ctx context.Context, telegramID int64) error {
	_, err := s.sess.
		Update("linked_accounts").
		Set("last_check", time.Now()).
		Where("telegram_id = ?", telegramID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update last check",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return fmt.Errorf("update last check: %w", err)
	}

	return nil
}

func (s *Store) SetNotifyEnabled(ctx context.Context, telegramID int64, enabled bool) error {
	_, err := s.sess.
		Update("linked_accounts").
		Set("notify_enabled", enabled).
		Where("telegram_id = ?", telegramID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to set notify enabled",
			zap.Int64("telegram_id", telegramID),
			zap.Bool("enabled", enabled),
			zap.Error(err),
		)
		return fmt.Errorf("set notify enabled: %w", err)
	}

	s.logger.Info("notifications updated",
		zap.Int64("telegram_id", telegramID),
		zap.Bool("enabled", enabled),
	)

	return nil
}

// UnlinkAccount removes the link and, through the foreign key, its seen markers.
func (s *Store) UnlinkAccount(ctx context.Context, telegramID int64) error {
	_, err := s.sess.
		DeleteFrom("linked_accounts").
		Where("telegram_id = ?", telegramID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to unlink account",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return fmt.Errorf("unlink account: %w", err)
	}

	s.logger.Info("account unlinked", zap.Int64("telegram_id", telegramID))
	return nil
}
