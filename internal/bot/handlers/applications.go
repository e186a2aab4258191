package handlers

import (
	"errors"
	"fmt"

	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/store"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /applications
func HandleApplications(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		apps := sess.Stores.Applications
		if _, err := sess.FetchApplications(reqCtx); err != nil {
			return storeFailure(c, err, apps.Err(), apps.ClearError)
		}

		// applications are joined with cached jobs only
		if sess.Stores.Jobs.Len() == 0 {
			if _, err := sess.FetchJobs(reqCtx); err != nil {
				ctx.Logger.Warn("failed to fetch jobs for applications", zap.Error(err))
				sess.Stores.Jobs.ClearError()
			}
		}

		items := apps.ResolveJobs(sess.Scope(), sess.Stores.Jobs)
		if len(items) == 0 {
			return c.Send("📭 No applications yet")
		}

		if err := c.Send(fmt.Sprintf("📨 *Applications:* %d", len(items)), tele.ModeMarkdownV2); err != nil {
			return err
		}

		cards := make([]card, 0, len(items))
		for _, item := range items {
			cd := card{text: utils.FormatApplication(item)}
			if sess.Role != models.RoleUser {
				cd.markup = utils.InlineApplicationKeyboard(item.Application)
			}
			cards = append(cards, cd)
		}
		sendCards(ctx, c, cards)

		return nil
	})
}

func handleApplicationStatus(ctx *Context, c tele.Context, sess *session.Session, args []string) error {
	if sess.Role == models.RoleUser {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Not allowed"})
	}
	if len(args) < 2 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid format"})
	}

	status, ok := models.ParseApplicationStatus(args[1])
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown status"})
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	apps := sess.Stores.Applications
	updated, err := apps.UpdateApplication(reqCtx, args[0], models.ApplicationUpdate{Status: &status})
	if err != nil {
		return storeFailure(c, err, apps.Err(), apps.ClearError)
	}

	if job, err := sess.Stores.Jobs.Job(updated.JobID); err == nil {
		item := store.ApplicationWithJob{Application: updated, Job: job}
		if err := c.Edit(
			utils.FormatApplication(item),
			utils.InlineApplicationKeyboard(updated),
			tele.ModeMarkdownV2,
		); err != nil {
			ctx.Logger.Debug("failed to edit application card", zap.Error(err))
		}
	}

	return c.Respond(&tele.CallbackResponse{Text: utils.FormatApplicationStatus(status)})
}

// /note <applicationId> <text>
func HandleNote(ctx *Context) tele.HandlerFunc {
	return withRole(ctx, func(c tele.Context, sess *session.Session) error {
		args := commandArgs(c.Message().Payload, 2)
		if len(args) < 2 || args[1] == "" {
			return c.Send("Usage: /note <application id> <text>")
		}

		err := sess.Stores.Applications.AppendLocalNote(args[0], args[1])
		if errors.Is(err, store.ErrNotFound) {
			return c.Send("❌ Unknown application. Open /applications first.")
		}
		if err != nil {
			ctx.Logger.Error("failed to append note", zap.Error(err))
			return c.Send("😔 Error while saving the note")
		}

		return c.Send("📝 Note added. It is kept until the next refresh of /applications.")
	}, models.RoleAdmin, models.RoleRecruiter)
}

// /saved
func HandleSaved(ctx *Context) tele.HandlerFunc {
	return withRole(ctx, func(c tele.Context, sess *session.Session) error {
		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		apps := sess.Stores.Applications
		if _, err := apps.FetchSaved(reqCtx, sess.UserID()); err != nil {
			return storeFailure(c, err, apps.Err(), apps.ClearError)
		}

		saved := apps.SavedJobs()
		if len(saved) == 0 {
			return c.Send("⭐ Nothing saved yet. Use the Save button on a job.")
		}

		if err := c.Send(fmt.Sprintf("⭐ *Saved jobs:* %d", len(saved)), tele.ModeMarkdownV2); err != nil {
			return err
		}

		cards := make([]card, 0, len(saved))
		for _, sj := range saved {
			var job *models.Job
			if j, err := sess.Stores.Jobs.Job(sj.JobID); err == nil {
				job = &j
			}

			cards = append(cards, card{
				text:   utils.FormatSavedJob(sj, job),
				markup: utils.InlineSavedJobKeyboard(sj.JobID),
			})
		}
		sendCards(ctx, c, cards)

		return nil
	}, models.RoleUser)
}
