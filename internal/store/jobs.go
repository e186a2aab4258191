package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

type JobsAPI interface {
	ListJobs(ctx context.Context) ([]models.Job, error)
	ListRecruiterJobs(ctx context.Context, recruiterID string) ([]models.Job, error)
	ListUserJobs(ctx context.Context, userID string) ([]models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	CreateJob(ctx context.Context, input models.JobInput) (*models.Job, error)
	UpdateJob(ctx context.Context, jobID string, input models.JobInput) (*models.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// JobStore caches jobs by id and keeps one ordered id list per role.
// Every job that passes through a fetch, create or update gets its
// FormattedSalary and DaysUntilDeadline computed at that moment.
type JobStore struct {
	api    JobsAPI
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	entities map[string]models.Job
	views    map[Scope][]string
	status   opStatus
	seq      sequencer
}

func NewJobStore(api JobsAPI, opts Options, logger *zap.Logger) *JobStore {
	return &JobStore{
		api:      api,
		opts:     opts,
		logger:   logger,
		entities: make(map[string]models.Job),
		views:    make(map[Scope][]string),
		seq:      newSequencer(),
	}
}

func (s *JobStore) FetchJobs(ctx context.Context) ([]models.Job, error) {
	return s.Fetch(ctx, ScopeAdmin, "")
}

func (s *JobStore) FetchRecruiterJobs(ctx context.Context, recruiterID string) ([]models.Job, error) {
	return s.Fetch(ctx, ScopeRecruiter, recruiterID)
}

func (s *JobStore) FetchUserJobs(ctx context.Context, userID string) ([]models.Job, error) {
	return s.Fetch(ctx, ScopeUser, userID)
}

// Fetch loads the jobs of one scope, upserts them into the entity map and
// replaces that scope's view with their ids in server order.
func (s *JobStore) Fetch(ctx context.Context, scope Scope, scopeID string) ([]models.Job, error) {
	var list func(context.Context) ([]models.Job, error)
	switch scope {
	case ScopeAdmin:
		list = s.api.ListJobs
	case ScopeRecruiter:
		list = func(ctx context.Context) ([]models.Job, error) { return s.api.ListRecruiterJobs(ctx, scopeID) }
	case ScopeUser:
		list = func(ctx context.Context) ([]models.Job, error) { return s.api.ListUserJobs(ctx, scopeID) }
	default:
		return nil, fmt.Errorf("fetch jobs: unknown scope %q", scope)
	}

	s.mu.Lock()
	seq := s.seq.next(string(scope))
	s.status.begin()
	s.mu.Unlock()

	jobs, err := list(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch jobs"))
		s.logger.Error("failed to fetch jobs",
			zap.String("scope", string(scope)),
			zap.String("scope_id", scopeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch %s jobs: %w", scope, err)
	}

	if !s.seq.accept(string(scope), seq, s.opts.RejectStaleFetches) {
		s.status.end()
		s.logger.Debug("discarding stale job fetch",
			zap.String("scope", string(scope)),
			zap.Uint64("seq", seq),
		)
		return nil, ErrStaleResponse
	}

	now := s.opts.now()
	ids := make([]string, 0, len(jobs))
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		stored := s.ingest(job, now)
		ids = append(ids, stored.ID)
		out = append(out, stored.Clone())
	}
	s.views[scope] = ids
	s.status.end()

	s.logger.Debug("jobs fetched",
		zap.String("scope", string(scope)),
		zap.Int("count", len(ids)),
	)

	return out, nil
}

// FetchJobByID refreshes a single job without touching any view.
func (s *JobStore) FetchJobByID(ctx context.Context, jobID string) (models.Job, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	job, err := s.api.GetJob(ctx, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch job"))
		s.logger.Error("failed to fetch job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return models.Job{}, fmt.Errorf("fetch job: %w", err)
	}

	stored := s.ingest(*job, s.opts.now())
	s.status.end()
	return stored.Clone(), nil
}

// CreateJob inserts the created job and puts it at the head of the recruiter view.
func (s *JobStore) CreateJob(ctx context.Context, input models.JobInput) (models.Job, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	job, err := s.api.CreateJob(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to create job"))
		s.logger.Error("failed to create job",
			zap.String("title", input.Title),
			zap.Error(err),
		)
		return models.Job{}, fmt.Errorf("create job: %w", err)
	}

	stored := s.ingest(*job, s.opts.now())
	s.views[ScopeRecruiter] = prependID(s.views[ScopeRecruiter], stored.ID)
	s.status.end()

	s.logger.Info("job created", zap.String("job_id", stored.ID))
	return stored.Clone(), nil
}

// UpdateJob replaces the cached job wholesale with the server's copy,
// inserting it if no fetch has cached it yet. Views are left alone.
func (s *JobStore) UpdateJob(ctx context.Context, jobID string, input models.JobInput) (models.Job, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	job, err := s.api.UpdateJob(ctx, jobID, input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to update job"))
		s.logger.Error("failed to update job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return models.Job{}, fmt.Errorf("update job: %w", err)
	}

	stored := s.ingest(*job, s.opts.now())
	s.status.end()
	return stored.Clone(), nil
}

// DeleteJob removes the job from the entity map and from every view, so no
// view is left pointing at a missing entity.
func (s *JobStore) DeleteJob(ctx context.Context, jobID string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	err := s.api.DeleteJob(ctx, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to delete job"))
		s.logger.Error("failed to delete job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("delete job: %w", err)
	}

	delete(s.entities, jobID)
	for scope, ids := range s.views {
		s.views[scope] = removeID(ids, jobID)
	}
	s.status.end()

	s.logger.Info("job removed from cache", zap.String("job_id", jobID))
	return nil
}

// IncrementView bumps the local view counter. It is not sent to the server.
func (s *JobStore) IncrementView(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.entities[jobID]
	if !ok {
		return false
	}
	job.Views++
	s.entities[jobID] = job
	return true
}

// IncrementApplicationCount reflects a successful application locally.
func (s *JobStore) IncrementApplicationCount(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.entities[jobID]
	if !ok {
		return false
	}
	job.ApplicationCount++
	s.entities[jobID] = job
	return true
}

func (s *JobStore) Job(jobID string) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.entities[jobID]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return job.Clone(), nil
}

// View resolves a scope's ids against the entity map, preserving order.
func (s *JobStore) View(scope Scope) []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.views[scope]
	out := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		if job, ok := s.entities[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

func (s *JobStore) ViewIDs(scope Scope) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.views[scope]...)
}

func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entities)
}

func (s *JobStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.inflight > 0
}

// Err returns the message of the last failed operation, or "".
func (s *JobStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.err
}

func (s *JobStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.err = ""
}

// ingest derives the virtual fields and upserts the job. Caller holds mu.
func (s *JobStore) ingest(job models.Job, now time.Time) models.Job {
	stored := deriveJob(job.Clone(), now)
	s.entities[stored.ID] = stored
	return stored
}
