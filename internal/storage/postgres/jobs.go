package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobmarket-bot/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const archiveJobQuery = `
	INSERT INTO jobs_archive (
		id, title, company, location, formatted_salary,
		application_deadline, recruiter_id, raw_data, archived_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		company = EXCLUDED.company,
		location = EXCLUDED.location,
		formatted_salary = EXCLUDED.formatted_salary,
		application_deadline = EXCLUDED.application_deadline,
		recruiter_id = EXCLUDED.recruiter_id,
		raw_data = EXCLUDED.raw_data,
		archived_at = EXCLUDED.archived_at
`

// ArchiveJobs upserts a snapshot of every job in one transaction.
func (s *Store) ArchiveJobs(ctx context.Context, jobs []models.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	now := time.Now()
	for _, job := range jobs {
		raw, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal job %s: %w", job.ID, err)
		}

		_, err = tx.
			InsertBySql(archiveJobQuery,
				job.ID,
				job.Title,
				job.Company,
				job.Location,
				job.FormattedSalary,
				job.ApplicationDeadline,
				job.RecruiterID,
				string(raw),
				now,
			).
			ExecContext(ctx)

		if err != nil {
			s.logger.Error("failed to archive job",
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			return fmt.Errorf("archive job %s: %w", job.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}

	s.logger.Debug("jobs archived", zap.Int("count", len(jobs)))
	return nil
}

// GetArchivedJob returns nil, nil when the job was never archived.
func (s *Store) GetArchivedJob(ctx context.Context, jobID string) (*models.ArchivedJob, error) {
	var job models.ArchivedJob

	err := s.sess.
		Select("*").
		From("jobs_archive").
		Where("id = ?", jobID).
		LoadOneContext(ctx, &job)

	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get archived job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get archived job: %w", err)
	}

	return &job, nil
}

// GetUnseenJobs returns the subset of jobIDs the account has not been shown.
func (s *Store) GetUnseenJobs(ctx context.Context, telegramID int64, jobIDs []string) ([]string, error) {
	if len(jobIDs) == 0 {
		return []string{}, nil
	}

	query := `
		SELECT id FROM unnest(?::text[]) AS id
		WHERE id NOT IN (SELECT job_id FROM seen_jobs WHERE telegram_id = ?)
	`

	var unseen []string
	_, err := s.sess.
		SelectBySql(query, pq.Array(jobIDs), telegramID).
		LoadContext(ctx, &unseen)

	if err != nil {
		s.logger.Error("failed to get unseen jobs",
			zap.Int64("telegram_id", telegramID),
			zap.Int("total_jobs", len(jobIDs)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get unseen jobs: %w", err)
	}

	s.logger.Debug("unseen jobs",
		zap.Int64("telegram_id", telegramID),
		zap.Int("total", len(jobIDs)),
		zap.Int("unseen", len(unseen)),
	)

	return unseen, nil
}

func (s *Store) MarkJobsSeen(ctx context.Context, telegramID int64, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO seen_jobs (telegram_id, job_id, seen_at)
		SELECT ?, id, NOW() FROM unnest(?::text[]) AS id
		ON CONFLICT (telegram_id, job_id) DO NOTHING
	`

	_, err := s.sess.
		InsertBySql(query, telegramID, pq.Array(jobIDs)).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to mark jobs as seen",
			zap.Int64("telegram_id", telegramID),
			zap.Int("count", len(jobIDs)),
			zap.Error(err),
		)
		return fmt.Errorf("mark jobs seen: %w", err)
	}

	return nil
}

func (s *Store) GetSeenJobsCount(ctx context.Context, telegramID int64) (int, error) {
	var count int

	err := s.sess.
		Select("COUNT(*)").
		From("seen_jobs").
		Where("telegram_id = ?", telegramID).
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to get seen jobs count",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("get seen jobs count: %w", err)
	}

	return count, nil
}

func (s *Store) CleanOldSeenJobs(ctx context.Context, daysOld int) (int64, error) {
	return s.cleanOlderThan(ctx, "seen_jobs", "seen_at", daysOld)
}

func (s *Store) CleanOldArchivedJobs(ctx context.Context, daysOld int) (int64, error) {
	return s.cleanOlderThan(ctx, "jobs_archive", "archived_at", daysOld)
}

func (s *Store) cleanOlderThan(ctx context.Context, table, column string, daysOld int) (int64, error) {
	result, err := s.sess.
		DeleteFrom(table).
		Where(column+" < NOW() - make_interval(days => ?)", daysOld).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to clean old rows",
			zap.String("table", table),
			zap.Int("days_old", daysOld),
			zap.Error(err),
		)
		return 0, fmt.Errorf("clean %s: %w", table, err)
	}

	rowsAffected, _ := result.RowsAffected()

	s.logger.Info("old rows cleaned",
		zap.String("table", table),
		zap.Int("days_old", daysOld),
		zap.Int64("count", rowsAffected),
	)

	return rowsAffected, nil
}
