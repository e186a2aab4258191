package marketplace

import (
	"context"
	"fmt"
	"net/http"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

// CurrentUser resolves the owner of the client's token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/users/me", nil, &user); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/users", nil, &users); err != nil {
		c.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, input models.UserInput) (*models.User, error) {
	var user models.User
	if err := c.send(ctx, http.MethodPost, "/users", input, &user); err != nil {
		c.logger.Error("failed to create user",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create user: %w", err)
	}

	c.logger.Info("user created", zap.String("user_id", user.ID))
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, input models.UserInput) (*models.User, error) {
	var user models.User
	if err := c.send(ctx, http.MethodPut, resourcePath("users", userID), input, &user); err != nil {
		c.logger.Error("failed to update user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update user: %w", err)
	}

	return &user, nil
}

func (c *Client) UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error) {
	var user models.User
	if err := c.send(ctx, http.MethodPatch, resourcePath("users", userID, "status"), statusRequest{Status: string(status)}, &user); err != nil {
		c.logger.Error("failed to update user status",
			zap.String("user_id", userID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update user status: %w", err)
	}

	c.logger.Info("user status updated",
		zap.String("user_id", userID),
		zap.String("status", string(status)),
	)
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.send(ctx, http.MethodDelete, resourcePath("users", userID), nil, nil); err != nil {
		c.logger.Error("failed to delete user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("delete user: %w", err)
	}

	c.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}
