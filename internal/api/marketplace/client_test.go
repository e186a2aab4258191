package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jobmarket-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL+"/api", 5*time.Second, zap.NewNop()).WithToken("secret")
}

func TestClient_ListRecruiterJobs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/jobs/recruiter/r1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"j1","title":"Go dev"},{"id":"j2","title":"SRE"}]`))
	})

	jobs, err := client.ListRecruiterJobs(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j1", jobs[0].ID)
	assert.Equal(t, "SRE", jobs[1].Title)
}

func TestClient_AcceptsDataEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"j9","title":"Wrapped"}}`))
	})

	job, err := client.GetJob(context.Background(), "j9")
	require.NoError(t, err)
	assert.Equal(t, "j9", job.ID)
	assert.Equal(t, "Wrapped", job.Title)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		notFound    bool
	}{
		{
			name:        "server message field",
			status:      http.StatusBadRequest,
			body:        `{"message":"Job is closed"}`,
			wantMessage: "Job is closed",
		},
		{
			name:        "server error field",
			status:      http.StatusForbidden,
			body:        `{"error":"Not your job"}`,
			wantMessage: "Not your job",
		},
		{
			name:        "no json body",
			status:      http.StatusInternalServerError,
			body:        `boom`,
			wantMessage: "",
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			body:        `{"message":"Job not found"}`,
			notFound:    true,
			wantMessage: "Job not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetJob(context.Background(), "j1")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.UserMessage())
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ListJobs(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_UpdateApplicationSendsOnlyChangedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/applications/a1", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"status": "reviewed"}, body)

		_, _ = w.Write([]byte(`{"id":"a1","status":"reviewed","coverLetter":"hi"}`))
	})

	status := models.ApplicationReviewed
	app, err := client.UpdateApplication(context.Background(), "a1", models.ApplicationUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationReviewed, app.Status)
	assert.Equal(t, "hi", app.CoverLetter)
}

func TestClient_CreateJobValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.CreateJob(context.Background(), models.JobInput{Title: "Incomplete"})
	require.Error(t, err)

	var vErr *models.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Zero(t, calls.Load())
}

func TestClient_AnalyticsTimeRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/recruiter/r1", r.URL.Path)
		assert.Equal(t, "30d", r.URL.Query().Get("timeRange"))
		_, _ = w.Write([]byte(`{"recruiterId":"r1","totalJobs":4}`))
	})

	snap, err := client.RecruiterAnalytics(context.Background(), "r1", "30d")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalJobs)
}

func TestClient_JobResponseWithoutID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	ctx := context.Background()

	_, err := client.GetJob(ctx, "j1")
	assert.ErrorIs(t, err, ErrMissingID)

	input := models.JobInput{
		Title:               "Backend Engineer",
		Company:             "Acme",
		Description:         "Build services",
		Location:            "Berlin",
		Type:                models.JobTypeFullTime,
		ExperienceLevel:     models.ExperienceMid,
		Salary:              models.Salary{Min: 1, Max: 2, Currency: models.CurrencyEUR, Period: models.SalaryYearly},
		ApplicationMethod:   models.ApplicationMethodPlatform,
		ApplicationDeadline: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err = client.CreateJob(ctx, input)
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = client.UpdateJob(ctx, "j1", input)
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestClient_ListMessagesFillsChatID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chats/c1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"m1","sender":"u2"},{"id":"m2","chat":"c1"},{"id":"m3","chatId":"c1"}]`))
	})

	messages, err := client.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for _, msg := range messages {
		assert.Equal(t, "c1", msg.ChatID, msg.ID)
	}
	assert.Equal(t, "u2", messages[0].Sender)
}
