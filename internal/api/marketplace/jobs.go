package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

// ListJobs returns every job, as seen by an admin.
func (c *Client) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := c.get(ctx, "/jobs", nil, &jobs); err != nil {
		c.logger.Error("failed to list jobs", zap.Error(err))
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	c.logger.Debug("jobs listed", zap.Int("count", len(jobs)))
	return jobs, nil
}

func (c *Client) ListRecruiterJobs(ctx context.Context, recruiterID string) ([]models.Job, error) {
	var jobs []models.Job
	if err := c.get(ctx, resourcePath("jobs", "recruiter", recruiterID), nil, &jobs); err != nil {
		c.logger.Error("failed to list recruiter jobs",
			zap.String("recruiter_id", recruiterID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list recruiter jobs: %w", err)
	}

	c.logger.Debug("recruiter jobs listed",
		zap.String("recruiter_id", recruiterID),
		zap.Int("count", len(jobs)),
	)
	return jobs, nil
}

// ListUserJobs returns the jobs visible to a job seeker. userID may be empty
// to let the server derive it from the token.
func (c *Client) ListUserJobs(ctx context.Context, userID string) ([]models.Job, error) {
	params := url.Values{}
	if userID != "" {
		params.Set("userId", userID)
	}

	var jobs []models.Job
	if err := c.get(ctx, "/jobs/user", params, &jobs); err != nil {
		c.logger.Error("failed to list user jobs",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list user jobs: %w", err)
	}

	c.logger.Debug("user jobs listed", zap.Int("count", len(jobs)))
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := c.get(ctx, resourcePath("jobs", jobID), nil, &job); err != nil {
		c.logger.Error("failed to get job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("get job %s: %w", jobID, ErrMissingID)
	}

	return &job, nil
}

func (c *Client) CreateJob(ctx context.Context, input models.JobInput) (*models.Job, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	var job models.Job
	if err := c.send(ctx, http.MethodPost, "/jobs", input, &job); err != nil {
		c.logger.Error("failed to create job",
			zap.String("title", input.Title),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("create job: %w", ErrMissingID)
	}

	c.logger.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("title", job.Title),
	)
	return &job, nil
}

func (c *Client) UpdateJob(ctx context.Context, jobID string, input models.JobInput) (*models.Job, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	var job models.Job
	if err := c.send(ctx, http.MethodPut, resourcePath("jobs", jobID), input, &job); err != nil {
		c.logger.Error("failed to update job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("update job %s: %w", jobID, ErrMissingID)
	}

	c.logger.Info("job updated", zap.String("job_id", jobID))
	return &job, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	if err := c.send(ctx, http.MethodDelete, resourcePath("jobs", jobID), nil, nil); err != nil {
		c.logger.Error("failed to delete job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("delete job: %w", err)
	}

	c.logger.Info("job deleted", zap.String("job_id", jobID))
	return nil
}
