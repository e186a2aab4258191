// Package store holds the client-side entity cache for the marketplace API.
//
// Each store owns a normalized entity map (id -> record) and, where roles see
// different subsets, ordered id lists ("views") indexing into that one map.
// Every mutation goes through a store method; read accessors hand out copies.
//
// Network calls run outside the store lock. The result is applied under the
// lock in a single step, so a view and the entities it references are always
// replaced together.
package store

import (
	"time"

	"go.uber.org/zap"
)

// Scope selects one of the role-scoped views.
type Scope string

const (
	ScopeAdmin     Scope = "admin"
	ScopeRecruiter Scope = "recruiter"
	ScopeUser      Scope = "user"
)

type Options struct {
	// Now is the clock used for derived fields. Defaults to time.Now.
	Now func() time.Time

	// CurrentUserID is the session user. Chat read receipts and unread
	// counting depend on it.
	CurrentUserID string

	// RejectStaleFetches discards a fetch result when a newer fetch of the
	// same scope has already been applied. When false the last response to
	// arrive wins, even if it belongs to an older request.
	RejectStaleFetches bool

	// SnapshotCache, when set, backs the analytics containers.
	SnapshotCache SnapshotCache
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// API is everything the stores need from the request client.
type API interface {
	JobsAPI
	ApplicationsAPI
	ChatAPI
	UsersAPI
	AnalyticsAPI
}

// Stores is the set of containers backing one user session.
type Stores struct {
	Jobs         *JobStore
	Applications *ApplicationStore
	Chat         *ChatStore
	Users        *UserStore
	Analytics    *AnalyticsStore
}

func New(api API, opts Options, logger *zap.Logger) *Stores {
	s := &Stores{
		Jobs:         NewJobStore(api, opts, logger.Named("jobs")),
		Applications: NewApplicationStore(api, opts, logger.Named("applications")),
		Chat:         NewChatStore(api, opts, logger.Named("chat")),
		Users:        NewUserStore(api, logger.Named("users")),
		Analytics:    NewAnalyticsStore(api, opts.SnapshotCache, logger.Named("analytics")),
	}

	s.Applications.OnApplied(func(jobID string) {
		s.Jobs.IncrementApplicationCount(jobID)
	})

	return s
}
