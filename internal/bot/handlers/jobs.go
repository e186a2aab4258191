package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobmarket-bot/internal/api/marketplace"
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /jobs
func HandleJobs(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		jobStore := sess.Stores.Jobs
		if _, err := sess.FetchJobs(reqCtx); err != nil {
			return storeFailure(c, err, jobStore.Err(), jobStore.ClearError)
		}

		view := jobStore.View(sess.Scope())
		if len(view) == 0 {
			return c.Send("😔 No jobs found")
		}

		go archiveJobs(ctx, view)

		if sess.Role == models.RoleUser {
			// save buttons depend on it; the list is still useful without
			if _, err := sess.Stores.Applications.FetchSaved(reqCtx, sess.UserID()); err != nil {
				ctx.Logger.Warn("failed to fetch saved jobs", zap.Error(err))
				sess.Stores.Applications.ClearError()
			}
		}

		shown := view
		if limit := ctx.Config.MaxJobsPerCheck; len(shown) > limit {
			shown = shown[:limit]
		}

		header := fmt.Sprintf("💼 *Jobs:* %d", len(view))
		if len(shown) < len(view) {
			header += fmt.Sprintf("\nShowing the first %d", len(shown))
		}
		if err := c.Send(header, tele.ModeMarkdownV2); err != nil {
			return err
		}

		sendCards(ctx, c, jobCards(sess, shown))

		go markJobsSeen(ctx, c.Sender().ID, shown)

		return nil
	})
}

func jobCards(sess *session.Session, jobs []models.Job) []card {
	cards := make([]card, 0, len(jobs))
	for _, job := range jobs {
		cards = append(cards, card{
			text:   utils.FormatJob(job),
			markup: utils.InlineJobKeyboard(job, sess.Role, sess.Stores.Applications.IsJobSaved(job.ID)),
		})
	}
	return cards
}

func handleJobDetails(ctx *Context, c tele.Context, sess *session.Session, jobID string) error {
	reqCtx, cancel := requestContext()
	defer cancel()

	jobStore := sess.Stores.Jobs

	job, err := jobStore.FetchJobByID(reqCtx, jobID)
	if errors.Is(err, marketplace.ErrNotFound) {
		jobStore.ClearError()
		return showArchivedJob(ctx, c, jobID)
	}
	if err != nil {
		return storeFailure(c, err, jobStore.Err(), jobStore.ClearError)
	}

	jobStore.IncrementView(jobID)
	if viewed, err := jobStore.Job(jobID); err == nil {
		job = viewed
	}

	if err := respond(c, ""); err != nil {
		ctx.Logger.Warn("failed to answer callback", zap.Error(err))
	}

	return c.Send(
		utils.FormatJobDetails(job),
		utils.InlineJobKeyboard(job, sess.Role, sess.Stores.Applications.IsJobSaved(jobID)),
		tele.ModeMarkdownV2,
	)
}

// showArchivedJob falls back to the copy kept in postgres for jobs the
// marketplace no longer serves.
func showArchivedJob(ctx *Context, c tele.Context, jobID string) error {
	reqCtx, cancel := requestContext()
	defer cancel()

	archived, err := ctx.Store.GetArchivedJob(reqCtx, jobID)
	if err != nil {
		ctx.Logger.Error("failed to get archived job", zap.String("job_id", jobID), zap.Error(err))
	}
	if archived == nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ This job no longer exists", ShowAlert: true})
	}

	if err := respond(c, ""); err != nil {
		ctx.Logger.Warn("failed to answer callback", zap.Error(err))
	}
	return c.Send(utils.FormatArchivedJob(archived), tele.ModeMarkdownV2)
}

func handleJobApply(ctx *Context, c tele.Context, sess *session.Session, jobID string) error {
	if sess.Role != models.RoleUser {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Only job seekers can apply"})
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	apps := sess.Stores.Applications
	if _, err := apps.ApplyToJob(reqCtx, sess.UserID(), jobID, "", ""); err != nil {
		return storeFailure(c, err, apps.Err(), apps.ClearError)
	}

	return c.Respond(&tele.CallbackResponse{Text: "✅ Application sent"})
}

func handleJobSave(ctx *Context, c tele.Context, sess *session.Session, jobID string, save bool) error {
	if sess.Role != models.RoleUser {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Only job seekers can save jobs"})
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	apps := sess.Stores.Applications

	var err error
	if save {
		_, err = apps.SaveJob(reqCtx, sess.UserID(), jobID, "")
	} else {
		err = apps.UnsaveJobByJobID(reqCtx, jobID)
	}
	if err != nil {
		return storeFailure(c, err, apps.Err(), apps.ClearError)
	}

	// flip the button on the card
	if job, err := sess.Stores.Jobs.Job(jobID); err == nil {
		if err := c.Edit(utils.InlineJobKeyboard(job, sess.Role, save)); err != nil {
			ctx.Logger.Debug("failed to update keyboard", zap.Error(err))
		}
	}

	if save {
		return c.Respond(&tele.CallbackResponse{Text: "⭐ Saved"})
	}
	return c.Respond(&tele.CallbackResponse{Text: "✖️ Removed from saved"})
}

func handleJobDelete(ctx *Context, c tele.Context, sess *session.Session, jobID string) error {
	if sess.Role == models.RoleUser {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Not allowed"})
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	jobStore := sess.Stores.Jobs
	if err := jobStore.DeleteJob(reqCtx, jobID); err != nil {
		return storeFailure(c, err, jobStore.Err(), jobStore.ClearError)
	}

	if err := c.Delete(); err != nil {
		ctx.Logger.Debug("failed to delete job card", zap.Error(err))
	}

	return c.Respond(&tele.CallbackResponse{Text: "🗑 Job deleted"})
}

func archiveJobs(ctx *Context, jobs []models.Job) {
	dbCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctx.Store.ArchiveJobs(dbCtx, jobs); err != nil {
		ctx.Logger.Error("failed to archive jobs", zap.Int("count", len(jobs)), zap.Error(err))
	}
}

func markJobsSeen(ctx *Context, telegramID int64, jobs []models.Job) {
	dbCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}

	if err := ctx.Store.MarkJobsSeen(dbCtx, telegramID, ids); err != nil {
		ctx.Logger.Error("failed to mark jobs as seen",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err),
		)
	}
}
