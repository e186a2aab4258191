package utils

import (
	"strings"

	"jobmarket-bot/internal/models"

	tele "gopkg.in/telebot.v3"
)

// Reply keyboard labels, matched by the text handler.
const (
	BtnJobs         = "💼 Jobs"
	BtnApplications = "📨 Applications"
	BtnSaved        = "⭐ Saved"
	BtnChats        = "💬 Chats"
	BtnStats        = "📊 Stats"
	BtnUsers        = "👥 Users"
	BtnHelp         = "❓ Help"
	BtnCancel       = "❌ Cancel"
)

// Inline callback actions.
const (
	ActionJobDetails = "job_details"
	ActionJobApply   = "job_apply"
	ActionJobSave    = "job_save"
	ActionJobUnsave  = "job_unsave"
	ActionJobDelete  = "job_delete"
	ActionAppStatus  = "app_status"
	ActionChatOpen   = "chat_open"
	ActionUserStatus = "user_status"
	ActionStatsRange = "stats_range"
)

// CallbackData joins an action and its arguments into inline button data.
func CallbackData(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), ":")
}

// ParseCallback splits callback data produced by CallbackData. Telebot
// prefixes data buttons with \f and appends an empty payload after |.
func ParseCallback(data string) (string, []string) {
	data = strings.TrimPrefix(data, "\f")
	data = strings.TrimSuffix(data, "|")

	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

func MainMenuKeyboard(role models.Role) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	btnJobs := menu.Text(BtnJobs)
	btnApplications := menu.Text(BtnApplications)
	btnChats := menu.Text(BtnChats)
	btnHelp := menu.Text(BtnHelp)

	switch role {
	case models.RoleAdmin:
		menu.Reply(
			menu.Row(btnJobs, btnApplications),
			menu.Row(menu.Text(BtnUsers), menu.Text(BtnStats)),
			menu.Row(btnChats, btnHelp),
		)
	case models.RoleRecruiter:
		menu.Reply(
			menu.Row(btnJobs, btnApplications),
			menu.Row(btnChats, menu.Text(BtnStats)),
			menu.Row(btnHelp),
		)
	default:
		menu.Reply(
			menu.Row(btnJobs, menu.Text(BtnSaved)),
			menu.Row(btnApplications, btnChats),
			menu.Row(btnHelp),
		)
	}

	return menu
}

func CancelKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(BtnCancel)))
	return menu
}

func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// InlineJobKeyboard shows the actions the role may take on a job. saved only
// matters for job seekers.
func InlineJobKeyboard(job models.Job, role models.Role, saved bool) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btnDetails := menu.Data("ℹ️ Details", CallbackData(ActionJobDetails, job.ID))

	var rows []tele.Row
	switch role {
	case models.RoleUser:
		btnApply := menu.Data("📨 Apply", CallbackData(ActionJobApply, job.ID))
		btnSave := menu.Data("⭐ Save", CallbackData(ActionJobSave, job.ID))
		if saved {
			btnSave = menu.Data("✖️ Unsave", CallbackData(ActionJobUnsave, job.ID))
		}
		rows = append(rows, menu.Row(btnApply, btnSave), menu.Row(btnDetails))
	default:
		btnDelete := menu.Data("🗑 Delete", CallbackData(ActionJobDelete, job.ID))
		rows = append(rows, menu.Row(btnDetails, btnDelete))
	}

	if job.ApplicationMethod == models.ApplicationMethodExternal && job.ApplicationURL != "" {
		rows = append(rows, menu.Row(menu.URL("🔗 Company site", job.ApplicationURL)))
	}

	menu.Inline(rows...)
	return menu
}

func InlineSavedJobKeyboard(jobID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("ℹ️ Details", CallbackData(ActionJobDetails, jobID)),
		menu.Data("✖️ Unsave", CallbackData(ActionJobUnsave, jobID)),
	))
	return menu
}

// InlineApplicationKeyboard lets recruiters and admins move an application
// through its statuses. The current status is left out.
func InlineApplicationKeyboard(app models.Application) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	var buttons []tele.Btn
	for _, status := range []models.ApplicationStatus{
		models.ApplicationReviewed,
		models.ApplicationAccepted,
		models.ApplicationRejected,
	} {
		if status == app.Status {
			continue
		}
		buttons = append(buttons, menu.Data(
			FormatApplicationStatus(status),
			CallbackData(ActionAppStatus, app.ID, string(status)),
		))
	}

	menu.Inline(menu.Row(buttons...))
	return menu
}

func InlineChatKeyboard(chatID string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("📖 Open", CallbackData(ActionChatOpen, chatID))))
	return menu
}

func InlineUserKeyboard(user models.User) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btn := menu.Data("⛔ Suspend", CallbackData(ActionUserStatus, user.ID, string(models.UserSuspended)))
	if user.Status == models.UserSuspended {
		btn = menu.Data("🟢 Activate", CallbackData(ActionUserStatus, user.ID, string(models.UserActive)))
	}

	menu.Inline(menu.Row(btn))
	return menu
}

func InlineTimeRangeKeyboard(current string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	var buttons []tele.Btn
	for _, r := range models.TimeRanges {
		label := r
		if r == current {
			label = "• " + r
		}
		buttons = append(buttons, menu.Data(label, CallbackData(ActionStatsRange, r)))
	}

	menu.Inline(menu.Row(buttons...))
	return menu
}
