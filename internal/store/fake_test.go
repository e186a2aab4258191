package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

var errNotStubbed = errors.New("not stubbed")

// serverError mimics a request-client error that carries a server message.
type serverError struct {
	msg string
}

func (e serverError) Error() string       { return "api error: " + e.msg }
func (e serverError) UserMessage() string { return e.msg }

// fakeAPI implements API. Every method that has no stub returns errNotStubbed.
type fakeAPI struct {
	listJobs          func(ctx context.Context) ([]models.Job, error)
	listRecruiterJobs func(ctx context.Context, recruiterID string) ([]models.Job, error)
	listUserJobs      func(ctx context.Context, userID string) ([]models.Job, error)
	getJob            func(ctx context.Context, jobID string) (*models.Job, error)
	createJob         func(ctx context.Context, input models.JobInput) (*models.Job, error)
	updateJob         func(ctx context.Context, jobID string, input models.JobInput) (*models.Job, error)
	deleteJob         func(ctx context.Context, jobID string) error

	listApplications          func(ctx context.Context) ([]models.Application, error)
	listRecruiterApplications func(ctx context.Context, recruiterID string) ([]models.Application, error)
	listUserApplications      func(ctx context.Context, userID string) ([]models.Application, error)
	apply                     func(ctx context.Context, input models.ApplicationInput) (*models.Application, error)
	updateApplication         func(ctx context.Context, id string, update models.ApplicationUpdate) (*models.Application, error)
	listSavedJobs             func(ctx context.Context, userID string) ([]models.SavedJob, error)
	saveJob                   func(ctx context.Context, input models.SavedJobInput) (*models.SavedJob, error)
	updateSavedJobNotes       func(ctx context.Context, id, notes string) (*models.SavedJob, error)
	deleteSavedJob            func(ctx context.Context, id string) error

	listChats    func(ctx context.Context) ([]models.Chat, error)
	listMessages func(ctx context.Context, chatID string) ([]models.Message, error)
	sendMessage  func(ctx context.Context, chatID string, input models.MessageInput) (*models.Message, error)
	createChat   func(ctx context.Context, participantID string) (*models.Chat, error)
	markChatRead func(ctx context.Context, chatID string) error
	sendTyping   func(ctx context.Context, chatID string, isTyping bool) error

	listUsers        func(ctx context.Context) ([]models.User, error)
	createUser       func(ctx context.Context, input models.UserInput) (*models.User, error)
	updateUser       func(ctx context.Context, id string, input models.UserInput) (*models.User, error)
	updateUserStatus func(ctx context.Context, id string, status models.UserStatus) (*models.User, error)
	deleteUser       func(ctx context.Context, id string) error

	adminAnalytics     func(ctx context.Context, timeRange string) (*models.AdminAnalytics, error)
	recruiterAnalytics func(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error)
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) ListJobs(ctx context.Context) ([]models.Job, error) {
	if f.listJobs == nil {
		return nil, errNotStubbed
	}
	return f.listJobs(ctx)
}

func (f *fakeAPI) ListRecruiterJobs(ctx context.Context, recruiterID string) ([]models.Job, error) {
	if f.listRecruiterJobs == nil {
		return nil, errNotStubbed
	}
	return f.listRecruiterJobs(ctx, recruiterID)
}

func (f *fakeAPI) ListUserJobs(ctx context.Context, userID string) ([]models.Job, error) {
	if f.listUserJobs == nil {
		return nil, errNotStubbed
	}
	return f.listUserJobs(ctx, userID)
}

func (f *fakeAPI) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	if f.getJob == nil {
		return nil, errNotStubbed
	}
	return f.getJob(ctx, jobID)
}

func (f *fakeAPI) CreateJob(ctx context.Context, input models.JobInput) (*models.Job, error) {
	if f.createJob == nil {
		return nil, errNotStubbed
	}
	return f.createJob(ctx, input)
}

func (f *fakeAPI) UpdateJob(ctx context.Context, jobID string, input models.JobInput) (*models.Job, error) {
	if f.updateJob == nil {
		return nil, errNotStubbed
	}
	return f.updateJob(ctx, jobID, input)
}

func (f *fakeAPI) DeleteJob(ctx context.Context, jobID string) error {
	if f.deleteJob == nil {
		return errNotStubbed
	}
	return f.deleteJob(ctx, jobID)
}

func (f *fakeAPI) ListApplications(ctx context.Context) ([]models.Application, error) {
	if f.listApplications == nil {
		return nil, errNotStubbed
	}
	return f.listApplications(ctx)
}

func (f *fakeAPI) ListRecruiterApplications(ctx context.Context, recruiterID string) ([]models.Application, error) {
	if f.listRecruiterApplications == nil {
		return nil, errNotStubbed
	}
	return f.listRecruiterApplications(ctx, recruiterID)
}

func (f *fakeAPI) ListUserApplications(ctx context.Context, userID string) ([]models.Application, error) {
	if f.listUserApplications == nil {
		return nil, errNotStubbed
	}
	return f.listUserApplications(ctx, userID)
}

func (f *fakeAPI) Apply(ctx context.Context, input models.ApplicationInput) (*models.Application, error) {
	if f.apply == nil {
		return nil, errNotStubbed
	}
	return f.apply(ctx, input)
}

func (f *fakeAPI) UpdateApplication(ctx context.Context, id string, update models.ApplicationUpdate) (*models.Application, error) {
	if f.updateApplication == nil {
		return nil, errNotStubbed
	}
	return f.updateApplication(ctx, id, update)
}

func (f *fakeAPI) ListSavedJobs(ctx context.Context, userID string) ([]models.SavedJob, error) {
	if f.listSavedJobs == nil {
		return nil, errNotStubbed
	}
	return f.listSavedJobs(ctx, userID)
}

func (f *fakeAPI) SaveJob(ctx context.Context, input models.SavedJobInput) (*models.SavedJob, error) {
	if f.saveJob == nil {
		return nil, errNotStubbed
	}
	return f.saveJob(ctx, input)
}

func (f *fakeAPI) UpdateSavedJobNotes(ctx context.Context, id, notes string) (*models.SavedJob, error) {
	if f.updateSavedJobNotes == nil {
		return nil, errNotStubbed
	}
	return f.updateSavedJobNotes(ctx, id, notes)
}

func (f *fakeAPI) DeleteSavedJob(ctx context.Context, id string) error {
	if f.deleteSavedJob == nil {
		return errNotStubbed
	}
	return f.deleteSavedJob(ctx, id)
}

func (f *fakeAPI) ListChats(ctx context.Context) ([]models.Chat, error) {
	if f.listChats == nil {
		return nil, errNotStubbed
	}
	return f.listChats(ctx)
}

func (f *fakeAPI) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	if f.listMessages == nil {
		return nil, errNotStubbed
	}
	return f.listMessages(ctx, chatID)
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID string, input models.MessageInput) (*models.Message, error) {
	if f.sendMessage == nil {
		return nil, errNotStubbed
	}
	return f.sendMessage(ctx, chatID, input)
}

func (f *fakeAPI) CreateChat(ctx context.Context, participantID string) (*models.Chat, error) {
	if f.createChat == nil {
		return nil, errNotStubbed
	}
	return f.createChat(ctx, participantID)
}

func (f *fakeAPI) MarkChatRead(ctx context.Context, chatID string) error {
	if f.markChatRead == nil {
		return errNotStubbed
	}
	return f.markChatRead(ctx, chatID)
}

func (f *fakeAPI) SendTyping(ctx context.Context, chatID string, isTyping bool) error {
	if f.sendTyping == nil {
		return errNotStubbed
	}
	return f.sendTyping(ctx, chatID, isTyping)
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]models.User, error) {
	if f.listUsers == nil {
		return nil, errNotStubbed
	}
	return f.listUsers(ctx)
}

func (f *fakeAPI) CreateUser(ctx context.Context, input models.UserInput) (*models.User, error) {
	if f.createUser == nil {
		return nil, errNotStubbed
	}
	return f.createUser(ctx, input)
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id string, input models.UserInput) (*models.User, error) {
	if f.updateUser == nil {
		return nil, errNotStubbed
	}
	return f.updateUser(ctx, id, input)
}

func (f *fakeAPI) UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	if f.updateUserStatus == nil {
		return nil, errNotStubbed
	}
	return f.updateUserStatus(ctx, id, status)
}

func (f *fakeAPI) DeleteUser(ctx context.Context, id string) error {
	if f.deleteUser == nil {
		return errNotStubbed
	}
	return f.deleteUser(ctx, id)
}

func (f *fakeAPI) AdminAnalytics(ctx context.Context, timeRange string) (*models.AdminAnalytics, error) {
	if f.adminAnalytics == nil {
		return nil, errNotStubbed
	}
	return f.adminAnalytics(ctx, timeRange)
}

func (f *fakeAPI) RecruiterAnalytics(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error) {
	if f.recruiterAnalytics == nil {
		return nil, errNotStubbed
	}
	return f.recruiterAnalytics(ctx, recruiterID, timeRange)
}

var testNow = time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Now:           func() time.Time { return testNow },
		CurrentUserID: "me",
	}
}

func newTestStores(t *testing.T, api *fakeAPI) *Stores {
	t.Helper()
	return New(api, testOptions(), zap.NewNop())
}

func testJob(id string) models.Job {
	return models.Job{
		ID:          id,
		Title:       "Job " + id,
		Company:     "Acme",
		RecruiterID: "r1",
		Salary: models.Salary{
			Min:      60000,
			Max:      80000,
			Currency: models.CurrencyUSD,
			Period:   models.SalaryYearly,
		},
		ApplicationDeadline: testNow.Add(10 * 24 * time.Hour),
	}
}

func jobList(ids ...string) []models.Job {
	out := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, testJob(id))
	}
	return out
}

// sequentialIDs returns a generator of "<prefix>1", "<prefix>2", ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
