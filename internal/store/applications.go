package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

type ApplicationsAPI interface {
	ListApplications(ctx context.Context) ([]models.Application, error)
	ListRecruiterApplications(ctx context.Context, recruiterID string) ([]models.Application, error)
	ListUserApplications(ctx context.Context, userID string) ([]models.Application, error)
	Apply(ctx context.Context, input models.ApplicationInput) (*models.Application, error)
	UpdateApplication(ctx context.Context, applicationID string, update models.ApplicationUpdate) (*models.Application, error)

	ListSavedJobs(ctx context.Context, userID string) ([]models.SavedJob, error)
	SaveJob(ctx context.Context, input models.SavedJobInput) (*models.SavedJob, error)
	UpdateSavedJobNotes(ctx context.Context, savedJobID, notes string) (*models.SavedJob, error)
	DeleteSavedJob(ctx context.Context, savedJobID string) error
}

// ApplicationStore keeps one shared application map with three role views
// over it, plus the saved-jobs map. It does not own job data: JobID must be
// resolved against a JobStore for display.
type ApplicationStore struct {
	api       ApplicationsAPI
	opts      Options
	logger    *zap.Logger
	onApplied func(jobID string)

	mu       sync.RWMutex
	entities map[string]models.Application
	views    map[Scope][]string
	saved    map[string]models.SavedJob
	savedBy  map[string]string // jobID -> savedJobID
	status   opStatus
	seq      sequencer
}

func NewApplicationStore(api ApplicationsAPI, opts Options, logger *zap.Logger) *ApplicationStore {
	return &ApplicationStore{
		api:      api,
		opts:     opts,
		logger:   logger,
		entities: make(map[string]models.Application),
		views:    make(map[Scope][]string),
		saved:    make(map[string]models.SavedJob),
		savedBy:  make(map[string]string),
		seq:      newSequencer(),
	}
}

// OnApplied registers a callback run after every successful ApplyToJob.
func (s *ApplicationStore) OnApplied(fn func(jobID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onApplied = fn
}

func (s *ApplicationStore) FetchAdmin(ctx context.Context) ([]models.Application, error) {
	return s.fetch(ctx, ScopeAdmin, "", func(ctx context.Context) ([]models.Application, error) {
		return s.api.ListApplications(ctx)
	})
}

func (s *ApplicationStore) FetchForRecruiter(ctx context.Context, recruiterID string) ([]models.Application, error) {
	return s.fetch(ctx, ScopeRecruiter, recruiterID, func(ctx context.Context) ([]models.Application, error) {
		return s.api.ListRecruiterApplications(ctx, recruiterID)
	})
}

func (s *ApplicationStore) FetchForUser(ctx context.Context, userID string) ([]models.Application, error) {
	return s.fetch(ctx, ScopeUser, userID, func(ctx context.Context) ([]models.Application, error) {
		return s.api.ListUserApplications(ctx, userID)
	})
}

func (s *ApplicationStore) fetch(ctx context.Context, scope Scope, scopeID string, list func(context.Context) ([]models.Application, error)) ([]models.Application, error) {
	s.mu.Lock()
	seq := s.seq.next(string(scope))
	s.status.begin()
	s.mu.Unlock()

	apps, err := list(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch applications"))
		s.logger.Error("failed to fetch applications",
			zap.String("scope", string(scope)),
			zap.String("scope_id", scopeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch %s applications: %w", scope, err)
	}

	if !s.seq.accept(string(scope), seq, s.opts.RejectStaleFetches) {
		s.status.end()
		s.logger.Debug("discarding stale application fetch",
			zap.String("scope", string(scope)),
			zap.Uint64("seq", seq),
		)
		return nil, ErrStaleResponse
	}

	ids := make([]string, 0, len(apps))
	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		stored := app.Clone()
		s.entities[stored.ID] = stored
		ids = append(ids, stored.ID)
		out = append(out, stored.Clone())
	}
	s.views[scope] = ids
	s.status.end()

	return out, nil
}

// ApplyToJob submits an application and prepends it to the user view only.
// Admin and recruiter views see it after their next fetch.
func (s *ApplicationStore) ApplyToJob(ctx context.Context, userID, jobID, coverLetter, resumeURL string) (models.Application, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	app, err := s.api.Apply(ctx, models.ApplicationInput{
		UserID:      userID,
		JobID:       jobID,
		CoverLetter: coverLetter,
		ResumeURL:   resumeURL,
	})

	s.mu.Lock()
	if err != nil {
		s.status.fail(failureMessage(err, "Failed to submit application"))
		s.mu.Unlock()
		s.logger.Error("failed to apply to job",
			zap.String("user_id", userID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return models.Application{}, fmt.Errorf("apply to job: %w", err)
	}

	stored := app.Clone()
	s.entities[stored.ID] = stored
	s.views[ScopeUser] = prependID(s.views[ScopeUser], stored.ID)
	s.status.end()
	onApplied := s.onApplied
	s.mu.Unlock()

	if onApplied != nil {
		onApplied(stored.JobID)
	}

	s.logger.Info("application submitted",
		zap.String("application_id", stored.ID),
		zap.String("job_id", stored.JobID),
	)
	return stored.Clone(), nil
}

// UpdateApplication sends a partial update and replaces the cached record
// with the full entity the server returns.
func (s *ApplicationStore) UpdateApplication(ctx context.Context, applicationID string, update models.ApplicationUpdate) (models.Application, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	app, err := s.api.UpdateApplication(ctx, applicationID, update)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to update application"))
		s.logger.Error("failed to update application",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
		return models.Application{}, fmt.Errorf("update application: %w", err)
	}

	stored := app.Clone()
	s.entities[stored.ID] = stored
	s.status.end()
	return stored.Clone(), nil
}

// AppendLocalNote appends "\n"+text to the cached notes of an application.
// This is a client-only scratch annotation: it is never sent to the server
// and the next fetch or update of the application overwrites it.
func (s *ApplicationStore) AppendLocalNote(applicationID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.entities[applicationID]
	if !ok {
		return ErrNotFound
	}
	app.Notes += "\n" + text
	s.entities[applicationID] = app
	return nil
}

func (s *ApplicationStore) Application(applicationID string) (models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.entities[applicationID]
	if !ok {
		return models.Application{}, ErrNotFound
	}
	return app.Clone(), nil
}

func (s *ApplicationStore) View(scope Scope) []models.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.views[scope]
	out := make([]models.Application, 0, len(ids))
	for _, id := range ids {
		if app, ok := s.entities[id]; ok {
			out = append(out, app.Clone())
		}
	}
	return out
}

func (s *ApplicationStore) ViewIDs(scope Scope) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.views[scope]...)
}

// ApplicationWithJob pairs an application with its job for display.
type ApplicationWithJob struct {
	Application models.Application
	Job         models.Job
}

// ResolveJobs joins a view with the job store. Applications whose job is not
// cached are skipped.
func (s *ApplicationStore) ResolveJobs(scope Scope, jobs *JobStore) []ApplicationWithJob {
	apps := s.View(scope)

	out := make([]ApplicationWithJob, 0, len(apps))
	for _, app := range apps {
		job, err := jobs.Job(app.JobID)
		if err != nil {
			continue
		}
		out = append(out, ApplicationWithJob{Application: app, Job: job})
	}
	return out
}

// FetchSaved replaces the saved-jobs map with the user's saved jobs.
func (s *ApplicationStore) FetchSaved(ctx context.Context, userID string) ([]models.SavedJob, error) {
	s.mu.Lock()
	seq := s.seq.next("saved")
	s.status.begin()
	s.mu.Unlock()

	saved, err := s.api.ListSavedJobs(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch saved jobs"))
		s.logger.Error("failed to fetch saved jobs",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch saved jobs: %w", err)
	}

	if !s.seq.accept("saved", seq, s.opts.RejectStaleFetches) {
		s.status.end()
		return nil, ErrStaleResponse
	}

	s.saved = make(map[string]models.SavedJob, len(saved))
	s.savedBy = make(map[string]string, len(saved))
	for _, sj := range saved {
		s.putSaved(sj)
	}
	s.status.end()

	return append([]models.SavedJob(nil), saved...), nil
}

func (s *ApplicationStore) SaveJob(ctx context.Context, userID, jobID, notes string) (models.SavedJob, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	sj, err := s.api.SaveJob(ctx, models.SavedJobInput{UserID: userID, JobID: jobID, Notes: notes})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to save job"))
		s.logger.Error("failed to save job",
			zap.String("user_id", userID),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return models.SavedJob{}, fmt.Errorf("save job: %w", err)
	}

	s.putSaved(*sj)
	s.status.end()
	return *sj, nil
}

// UpdateSavedNotes replaces the saved-job record with the server's copy.
func (s *ApplicationStore) UpdateSavedNotes(ctx context.Context, savedJobID, notes string) (models.SavedJob, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	sj, err := s.api.UpdateSavedJobNotes(ctx, savedJobID, notes)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to update saved job"))
		s.logger.Error("failed to update saved job notes",
			zap.String("saved_job_id", savedJobID),
			zap.Error(err),
		)
		return models.SavedJob{}, fmt.Errorf("update saved job notes: %w", err)
	}

	s.putSaved(*sj)
	s.status.end()
	return *sj, nil
}

// UnsaveJob deletes by saved-job id, not job id. See SavedJobFor.
func (s *ApplicationStore) UnsaveJob(ctx context.Context, savedJobID string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	err := s.api.DeleteSavedJob(ctx, savedJobID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to remove saved job"))
		s.logger.Error("failed to unsave job",
			zap.String("saved_job_id", savedJobID),
			zap.Error(err),
		)
		return fmt.Errorf("unsave job: %w", err)
	}

	s.dropSaved(savedJobID)
	s.status.end()
	return nil
}

// UnsaveJobByJobID resolves the saved-job id for jobID and unsaves it.
func (s *ApplicationStore) UnsaveJobByJobID(ctx context.Context, jobID string) error {
	sj, ok := s.SavedJobFor(jobID)
	if !ok {
		return ErrNotFound
	}
	return s.UnsaveJob(ctx, sj.ID)
}

func (s *ApplicationStore) IsJobSaved(jobID string) bool {
	_, ok := s.SavedJobFor(jobID)
	return ok
}

func (s *ApplicationStore) SavedJobFor(jobID string) (models.SavedJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.savedBy[jobID]
	if !ok {
		return models.SavedJob{}, false
	}
	return s.saved[id], true
}

// SavedJobs returns the saved jobs, most recently saved first.
func (s *ApplicationStore) SavedJobs() []models.SavedJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SavedJob, 0, len(s.saved))
	for _, sj := range s.saved {
		out = append(out, sj)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *ApplicationStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.inflight > 0
}

func (s *ApplicationStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.err
}

func (s *ApplicationStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.err = ""
}

// putSaved upserts a saved job and keeps the jobID index in step. Caller holds mu.
func (s *ApplicationStore) putSaved(sj models.SavedJob) {
	if prev, ok := s.saved[sj.ID]; ok && prev.JobID != sj.JobID {
		delete(s.savedBy, prev.JobID)
	}
	s.saved[sj.ID] = sj
	s.savedBy[sj.JobID] = sj.ID
}

// dropSaved removes a saved job and its index entry. Caller holds mu.
func (s *ApplicationStore) dropSaved(savedJobID string) {
	sj, ok := s.saved[savedJobID]
	if !ok {
		return
	}
	delete(s.saved, savedJobID)
	if s.savedBy[sj.JobID] == savedJobID {
		delete(s.savedBy, sj.JobID)
	}
}
