package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationReviewed ApplicationStatus = "reviewed"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationPending, ApplicationReviewed, ApplicationAccepted, ApplicationRejected:
		return st, true
	}
	return "", false
}

type Application struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	JobID         string            `json:"jobId"`
	Status        ApplicationStatus `json:"status"`
	CoverLetter   string            `json:"coverLetter,omitempty"`
	ResumeURL     string            `json:"resumeUrl,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	InterviewDate *time.Time        `json:"interviewDate,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (a Application) Clone() Application {
	if a.InterviewDate != nil {
		t := *a.InterviewDate
		a.InterviewDate = &t
	}
	return a
}

type ApplicationInput struct {
	UserID      string `json:"userId"`
	JobID       string `json:"jobId"`
	CoverLetter string `json:"coverLetter,omitempty"`
	ResumeURL   string `json:"resumeUrl,omitempty"`
}

// ApplicationUpdate carries only the fields being changed.
type ApplicationUpdate struct {
	Status        *ApplicationStatus `json:"status,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	InterviewDate *time.Time         `json:"interviewDate,omitempty"`
}

type SavedJob struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	JobID     string    `json:"jobId"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type SavedJobInput struct {
	UserID string `json:"userId"`
	JobID  string `json:"jobId"`
	Notes  string `json:"notes,omitempty"`
}
