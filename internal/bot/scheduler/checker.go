// Package scheduler runs the periodic checks that push new jobs and chat
// messages to linked Telegram users.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobmarket-bot/internal/bot/middleware"
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/config"
	"jobmarket-bot/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	cleanupSchedule   = "@daily"
	seenJobsRetention = 30 // days
	archiveRetention  = 90 // days
	maxMessageNotices = 5
)

// Sender delivers notifications; *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type Sessions interface {
	Get(ctx context.Context, telegramID int64) (*session.Session, error)
}

// Storage is the postgres side of the checker.
type Storage interface {
	GetAccountsToNotify(ctx context.Context) ([]models.LinkedAccount, error)
	UpdateLastCheck(ctx context.Context, telegramID int64) error
	ArchiveJobs(ctx context.Context, jobs []models.Job) error
	GetUnseenJobs(ctx context.Context, telegramID int64, jobIDs []string) ([]string, error)
	MarkJobsSeen(ctx context.Context, telegramID int64, jobIDs []string) error
	CleanOldSeenJobs(ctx context.Context, daysOld int) (int64, error)
	CleanOldArchivedJobs(ctx context.Context, daysOld int) (int64, error)
}

// Checker wraps robfig/cron and runs the notification and cleanup jobs.
type Checker struct {
	cron     *cron.Cron
	sender   Sender
	sessions Sessions
	storage  Storage
	limiter  middleware.RateCounter
	config   *config.Config
	logger   *zap.Logger

	// pause between accounts
	pause time.Duration
}

func New(
	sender Sender,
	sessions Sessions,
	storage Storage,
	limiter middleware.RateCounter,
	cfg *config.Config,
	logger *zap.Logger,
) *Checker {
	cl := cronLogger{logger: logger.Sugar()}

	return &Checker{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sender:   sender,
		sessions: sessions,
		storage:  storage,
		limiter:  limiter,
		config:   cfg,
		logger:   logger,
		pause:    2 * time.Second,
	}
}

// Start registers the jobs and starts the scheduler. One check runs right
// away so users do not wait for the first tick.
func (ch *Checker) Start(ctx context.Context) error {
	if _, err := ch.cron.AddFunc(ch.config.CheckSchedule, func() {
		ch.CheckAll(ctx)
	}); err != nil {
		return fmt.Errorf("add check job: %w", err)
	}

	if _, err := ch.cron.AddFunc(cleanupSchedule, func() {
		ch.Cleanup(ctx)
	}); err != nil {
		return fmt.Errorf("add cleanup job: %w", err)
	}

	ch.cron.Start()
	ch.logger.Info("checker started", zap.String("schedule", ch.config.CheckSchedule))

	go ch.CheckAll(ctx)

	return nil
}

// Stop waits for running jobs to finish.
func (ch *Checker) Stop() {
	<-ch.cron.Stop().Done()
	ch.logger.Info("checker stopped")
}

// CheckAll runs one notification pass over every account with
// notifications enabled.
func (ch *Checker) CheckAll(ctx context.Context) {
	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	accounts, err := ch.storage.GetAccountsToNotify(dbCtx)
	if err != nil {
		ch.logger.Error("failed to get accounts to notify", zap.Error(err))
		return
	}

	if len(accounts) == 0 {
		ch.logger.Debug("no accounts to check")
		return
	}

	ch.logger.Info("checking accounts", zap.Int("count", len(accounts)))

	for i, acc := range accounts {
		if err := ch.checkAccount(dbCtx, acc.TelegramID); err != nil {
			ch.logger.Error("failed to check account",
				zap.Int64("telegram_id", acc.TelegramID),
				zap.Error(err),
			)
			continue
		}

		if err := ch.storage.UpdateLastCheck(dbCtx, acc.TelegramID); err != nil {
			ch.logger.Error("failed to update last check",
				zap.Int64("telegram_id", acc.TelegramID),
				zap.Error(err),
			)
		}

		if i < len(accounts)-1 && ch.pause > 0 {
			select {
			case <-dbCtx.Done():
				return
			case <-time.After(ch.pause):
			}
		}
	}

	ch.logger.Info("finished checking accounts")
}

func (ch *Checker) checkAccount(ctx context.Context, telegramID int64) error {
	sess, err := ch.sessions.Get(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	if err := middleware.CheckAPIRateLimit(ch.limiter, ch.logger); err != nil {
		ch.logger.Warn("marketplace rate limit, skipping account", zap.Int64("telegram_id", telegramID))
		return nil
	}

	var errs []error

	// recruiters and admins would only be told about their own postings
	if sess.Role == models.RoleUser {
		if err := ch.notifyNewJobs(ctx, telegramID, sess); err != nil {
			errs = append(errs, err)
		}
	}

	if err := ch.notifyNewMessages(ctx, telegramID, sess); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (ch *Checker) notifyNewJobs(ctx context.Context, telegramID int64, sess *session.Session) error {
	jobStore := sess.Stores.Jobs

	if _, err := sess.FetchJobs(ctx); err != nil {
		jobStore.ClearError()
		return fmt.Errorf("fetch jobs: %w", err)
	}

	view := jobStore.View(sess.Scope())
	if len(view) == 0 {
		return nil
	}

	if err := ch.storage.ArchiveJobs(ctx, view); err != nil {
		ch.logger.Error("failed to archive jobs", zap.Error(err))
	}

	ids := make([]string, 0, len(view))
	for _, job := range view {
		ids = append(ids, job.ID)
	}

	unseenIDs, err := ch.storage.GetUnseenJobs(ctx, telegramID, ids)
	if err != nil {
		return fmt.Errorf("get unseen jobs: %w", err)
	}

	unseen := make(map[string]bool, len(unseenIDs))
	for _, id := range unseenIDs {
		unseen[id] = true
	}

	var fresh []models.Job
	for _, job := range view {
		if unseen[job.ID] {
			fresh = append(fresh, job)
		}
	}

	if len(fresh) == 0 {
		ch.logger.Debug("no new jobs", zap.Int64("telegram_id", telegramID))
		return nil
	}

	if limit := ch.config.MaxJobsPerCheck; len(fresh) > limit {
		fresh = fresh[:limit]
	}

	recipient := &tele.User{ID: telegramID}
	if _, err := ch.sender.Send(recipient, utils.FormatNewJobsHeader(len(fresh)), tele.ModeMarkdownV2); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}

	delivered := make([]string, 0, len(fresh))
	for _, job := range fresh {
		keyboard := utils.InlineJobKeyboard(job, sess.Role, sess.Stores.Applications.IsJobSaved(job.ID))

		if _, err := ch.sender.Send(recipient, utils.FormatJob(job), keyboard, tele.ModeMarkdownV2); err != nil {
			ch.logger.Error("failed to send job notification",
				zap.Int64("telegram_id", telegramID),
				zap.String("job_id", job.ID),
				zap.Error(err),
			)
			continue
		}
		delivered = append(delivered, job.ID)
	}

	if err := ch.storage.MarkJobsSeen(ctx, telegramID, delivered); err != nil {
		return fmt.Errorf("mark jobs seen: %w", err)
	}

	ch.logger.Info("sent new jobs",
		zap.Int64("telegram_id", telegramID),
		zap.Int("count", len(delivered)),
	)

	return nil
}

// notifyNewMessages polls chats whose last message is not cached yet. A chat
// seen for the first time only gets its history loaded.
func (ch *Checker) notifyNewMessages(ctx context.Context, telegramID int64, sess *session.Session) error {
	chatStore := sess.Stores.Chat

	chats, err := chatStore.FetchChats(ctx)
	if err != nil {
		chatStore.ClearError()
		return fmt.Errorf("fetch chats: %w", err)
	}

	var fresh []models.Message
	for _, chat := range chats {
		if chat.LastMessage == nil {
			continue
		}

		cached := chatStore.Messages(chat.ID)

		if len(cached) == 0 {
			if _, err := chatStore.FetchMessages(ctx, chat.ID); err != nil {
				chatStore.ClearError()
				ch.logger.Warn("failed to load chat history", zap.String("chat_id", chat.ID), zap.Error(err))
			}
			continue
		}

		if hasMessage(cached, chat.LastMessage.ID) {
			continue
		}

		messages, err := sess.Client.ListMessages(ctx, chat.ID)
		if err != nil {
			ch.logger.Warn("failed to poll chat", zap.String("chat_id", chat.ID), zap.Error(err))
			continue
		}

		for _, msg := range messages {
			if chatStore.ReceiveMessage(msg) && msg.Sender != sess.UserID() {
				fresh = append(fresh, msg)
			}
		}
	}

	if len(fresh) == 0 {
		return nil
	}

	recipient := &tele.User{ID: telegramID}
	for i, msg := range fresh {
		if i == maxMessageNotices {
			text := fmt.Sprintf("…and %d more\\. Unread in total: %d", len(fresh)-i, chatStore.TotalUnread())
			if _, err := ch.sender.Send(recipient, text, tele.ModeMarkdownV2); err != nil {
				ch.logger.Error("failed to send unread summary", zap.Error(err))
			}
			break
		}

		chat, err := chatStore.Chat(msg.ChatID)
		if err != nil {
			continue
		}

		if _, err := ch.sender.Send(recipient, utils.FormatUnreadNotice(chat, msg), tele.ModeMarkdownV2); err != nil {
			ch.logger.Error("failed to send message notification",
				zap.Int64("telegram_id", telegramID),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func hasMessage(messages []models.Message, id string) bool {
	for _, m := range messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Cleanup drops seen-job marks and archived jobs past their retention.
func (ch *Checker) Cleanup(ctx context.Context) {
	dbCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	seen, err := ch.storage.CleanOldSeenJobs(dbCtx, seenJobsRetention)
	if err != nil {
		ch.logger.Error("failed to clean seen jobs", zap.Error(err))
	}

	archived, err := ch.storage.CleanOldArchivedJobs(dbCtx, archiveRetention)
	if err != nil {
		ch.logger.Error("failed to clean archived jobs", zap.Error(err))
	}

	ch.logger.Info("cleanup finished",
		zap.Int64("seen_jobs", seen),
		zap.Int64("archived_jobs", archived),
	)
}

// cronLogger routes robfig/cron's logging to zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
