package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"jobmarket-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJobStore_FetchRecruiterJobsDerivesFields(t *testing.T) {
	api := &fakeAPI{
		listRecruiterJobs: func(_ context.Context, recruiterID string) ([]models.Job, error) {
			assert.Equal(t, "r1", recruiterID)
			return []models.Job{{
				ID: "j1",
				Salary: models.Salary{
					Min:      80000,
					Max:      80000,
					Currency: models.CurrencyUSD,
					Period:   models.SalaryYearly,
				},
				ApplicationDeadline: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	s := newTestStores(t, api).Jobs

	jobs, err := s.FetchRecruiterJobs(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job, err := s.Job("j1")
	require.NoError(t, err)
	assert.Equal(t, "$80,000/yearly", job.FormattedSalary)
	assert.Equal(t, 2, job.DaysUntilDeadline)
	assert.Equal(t, []string{"j1"}, s.ViewIDs(ScopeRecruiter))
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())
}

func TestJobStore_FetchReplacesViewInServerOrder(t *testing.T) {
	responses := [][]models.Job{jobList("a", "b", "c"), jobList("c", "a")}
	var calls atomic.Int32
	api := &fakeAPI{
		listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
			return responses[calls.Add(1)-1], nil
		},
	}
	s := newTestStores(t, api).Jobs
	ctx := context.Background()

	_, err := s.FetchRecruiterJobs(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, s.ViewIDs(ScopeRecruiter))

	_, err = s.FetchRecruiterJobs(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, s.ViewIDs(ScopeRecruiter))

	// b drops out of the view but stays cached
	assert.Equal(t, 3, s.Len())
	for _, job := range s.View(ScopeRecruiter) {
		_, err := s.Job(job.ID)
		assert.NoError(t, err)
	}
}

func TestJobStore_ViewsShareEntities(t *testing.T) {
	api := &fakeAPI{
		listJobs: func(context.Context) ([]models.Job, error) {
			return jobList("a", "b"), nil
		},
		listUserJobs: func(context.Context, string) ([]models.Job, error) {
			job := testJob("a")
			job.Title = "Renamed"
			return []models.Job{job}, nil
		},
	}
	s := newTestStores(t, api).Jobs
	ctx := context.Background()

	_, err := s.FetchJobs(ctx)
	require.NoError(t, err)
	_, err = s.FetchUserJobs(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "Renamed", s.View(ScopeAdmin)[0].Title)
	assert.Equal(t, []string{"a"}, s.ViewIDs(ScopeUser))
}

func TestJobStore_FetchFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", serverError{msg: "Recruiter not found"}, "Recruiter not found"},
		{"empty server message", serverError{}, "Failed to fetch jobs"},
		{"transport error", errors.New("connection refused"), "Failed to fetch jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fail := false
			api := &fakeAPI{
				listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
					if fail {
						return nil, tt.err
					}
					return jobList("a"), nil
				},
			}
			s := newTestStores(t, api).Jobs
			ctx := context.Background()

			_, err := s.FetchRecruiterJobs(ctx, "r1")
			require.NoError(t, err)

			fail = true
			_, err = s.FetchRecruiterJobs(ctx, "r1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			assert.Equal(t, tt.wantMsg, s.Err())
			assert.False(t, s.Loading())
			assert.Equal(t, []string{"a"}, s.ViewIDs(ScopeRecruiter))

			s.ClearError()
			assert.Empty(t, s.Err())
		})
	}
}

func TestJobStore_CreatePrependsToRecruiterView(t *testing.T) {
	api := &fakeAPI{
		listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
			return jobList("a", "b"), nil
		},
		createJob: func(_ context.Context, input models.JobInput) (*models.Job, error) {
			job := testJob("new")
			job.Title = input.Title
			return &job, nil
		},
	}
	s := newTestStores(t, api).Jobs
	ctx := context.Background()

	_, err := s.FetchRecruiterJobs(ctx, "r1")
	require.NoError(t, err)

	created, err := s.CreateJob(ctx, models.InputFromJob(testJob("ignored")))
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, "$60,000 - $80,000/yearly", created.FormattedSalary)
	assert.Equal(t, 10, created.DaysUntilDeadline)

	assert.Equal(t, []string{"new", "a", "b"}, s.ViewIDs(ScopeRecruiter))
	assert.Empty(t, s.ViewIDs(ScopeAdmin))
}

func TestJobStore_UpdateReplacesWholesale(t *testing.T) {
	api := &fakeAPI{
		listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
			job := testJob("a")
			job.Tags = []string{"go", "remote"}
			job.Views = 10
			return []models.Job{job}, nil
		},
		updateJob: func(_ context.Context, jobID string, input models.JobInput) (*models.Job, error) {
			job := testJob(jobID)
			job.Title = input.Title
			job.Salary.Min = 70000
			job.ApplicationDeadline = testNow.Add(-12 * time.Hour)
			return &job, nil
		},
	}
	s := newTestStores(t, api).Jobs
	ctx := context.Background()

	_, err := s.FetchRecruiterJobs(ctx, "r1")
	require.NoError(t, err)

	input := models.InputFromJob(testJob("a"))
	input.Title = "Updated"
	_, err = s.UpdateJob(ctx, "a", input)
	require.NoError(t, err)

	job, err := s.Job("a")
	require.NoError(t, err)
	assert.Equal(t, "Updated", job.Title)
	assert.Nil(t, job.Tags)
	assert.Zero(t, job.Views)
	assert.Equal(t, "$70,000 - $80,000/yearly", job.FormattedSalary)
	assert.Equal(t, 0, job.DaysUntilDeadline)

	// an update for a job no fetch has seen inserts it
	_, err = s.UpdateJob(ctx, "z", input)
	require.NoError(t, err)
	_, err = s.Job("z")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.ViewIDs(ScopeRecruiter))
}

func TestJobStore_DeleteRemovesFromViewAndMap(t *testing.T) {
	var deleted string
	api := &fakeAPI{
		listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
			return jobList("a", "b", "c"), nil
		},
		listJobs: func(context.Context) ([]models.Job, error) {
			return jobList("b"), nil
		},
		deleteJob: func(_ context.Context, jobID string) error {
			deleted = jobID
			return nil
		},
	}
	s := newTestStores(t, api).Jobs
	ctx := context.Background()

	_, err := s.FetchRecruiterJobs(ctx, "r1")
	require.NoError(t, err)
	_, err = s.FetchJobs(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteJob(ctx, "b"))
	assert.Equal(t, "b", deleted)

	assert.Equal(t, []string{"a", "c"}, s.ViewIDs(ScopeRecruiter))
	assert.Empty(t, s.ViewIDs(ScopeAdmin))
	_, err = s.Job("b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobStore_DeleteFailureKeepsJob(t *testing.T) {
	api := &fakeAPI{
		listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
			return jobList("a"), nil
		},
		deleteJob: func(context.Context, string) error {
			return serverError{msg: "Job has applications"}
		},
	}
	s := newTestStores(t, api).Jobs
	ctx := context.Background()

	_, err := s.FetchRecruiterJobs(ctx, "r1")
	require.NoError(t, err)

	assert.Error(t, s.DeleteJob(ctx, "a"))
	assert.Equal(t, "Job has applications", s.Err())
	assert.Equal(t, []string{"a"}, s.ViewIDs(ScopeRecruiter))
}

func TestJobStore_FetchJobByIDLeavesViews(t *testing.T) {
	api := &fakeAPI{
		getJob: func(_ context.Context, jobID string) (*models.Job, error) {
			job := testJob(jobID)
			return &job, nil
		},
	}
	s := newTestStores(t, api).Jobs

	job, err := s.FetchJobByID(context.Background(), "x")
	require.NoError(t, err)
	assert.NotEmpty(t, job.FormattedSalary)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.ViewIDs(ScopeAdmin))
	assert.Empty(t, s.ViewIDs(ScopeRecruiter))
	assert.Empty(t, s.ViewIDs(ScopeUser))
}

func TestJobStore_IncrementViewIsLocal(t *testing.T) {
	api := &fakeAPI{
		listJobs: func(context.Context) ([]models.Job, error) {
			return jobList("a"), nil
		},
	}
	s := newTestStores(t, api).Jobs

	_, err := s.FetchJobs(context.Background())
	require.NoError(t, err)

	assert.True(t, s.IncrementView("a"))
	assert.True(t, s.IncrementView("a"))
	assert.False(t, s.IncrementView("missing"))

	job, err := s.Job("a")
	require.NoError(t, err)
	assert.Equal(t, 2, job.Views)
}

func TestJobStore_ReadsAreCopies(t *testing.T) {
	api := &fakeAPI{
		listJobs: func(context.Context) ([]models.Job, error) {
			job := testJob("a")
			job.Tags = []string{"go"}
			return []models.Job{job}, nil
		},
	}
	s := newTestStores(t, api).Jobs

	jobs, err := s.FetchJobs(context.Background())
	require.NoError(t, err)
	jobs[0].Tags[0] = "mutated"

	job, err := s.Job("a")
	require.NoError(t, err)
	job.Tags[0] = "mutated again"

	job, err = s.Job("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, job.Tags)
}

func TestJobStore_OutOfOrderFetches(t *testing.T) {
	tests := []struct {
		name        string
		rejectStale bool
		wantView    []string
		wantErr     error
	}{
		{"last response wins by default", false, []string{"old"}, nil},
		{"stale response rejected", true, []string{"new"}, ErrStaleResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := make(chan struct{})
			release := make(chan struct{})
			var calls atomic.Int32

			api := &fakeAPI{
				listRecruiterJobs: func(context.Context, string) ([]models.Job, error) {
					if calls.Add(1) == 1 {
						close(started)
						<-release
						return jobList("old"), nil
					}
					return jobList("new"), nil
				},
			}
			opts := testOptions()
			opts.RejectStaleFetches = tt.rejectStale
			s := NewJobStore(api, opts, zap.NewNop())
			ctx := context.Background()

			done := make(chan error, 1)
			go func() {
				_, err := s.FetchRecruiterJobs(ctx, "r1")
				done <- err
			}()

			<-started
			_, err := s.FetchRecruiterJobs(ctx, "r1")
			require.NoError(t, err)

			close(release)
			err = <-done
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantView, s.ViewIDs(ScopeRecruiter))
			assert.False(t, s.Loading())
		})
	}
}
