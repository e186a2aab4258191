package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/store"
)

// FormatJob renders a job card for Telegram
func FormatJob(job models.Job) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*\n\n", EscapeMarkdown(job.Title)))

	if job.Company != "" {
		sb.WriteString(fmt.Sprintf("🏢 *Company:* %s\n", EscapeMarkdown(job.Company)))
	}

	location := job.Location
	if job.IsRemote {
		location += " (remote)"
	}
	sb.WriteString(fmt.Sprintf("📍 *Location:* %s\n", EscapeMarkdown(location)))

	salary := job.FormattedSalary
	if salary == "" {
		salary = store.FormatSalary(job.Salary)
	}
	sb.WriteString(fmt.Sprintf("💰 *Salary:* %s\n", EscapeMarkdown(salary)))

	sb.WriteString(fmt.Sprintf("💼 *Type:* %s, %s\n",
		EscapeMarkdown(models.GetJobTypeDisplayName(job.Type)),
		EscapeMarkdown(models.GetExperienceDisplayName(job.ExperienceLevel)),
	))

	sb.WriteString(fmt.Sprintf("⏳ *Deadline:* %s\n", EscapeMarkdown(FormatDeadline(job.DaysUntilDeadline))))

	if len(job.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("🏷 %s\n", EscapeMarkdown(strings.Join(job.Tags, ", "))))
	}

	sb.WriteString(fmt.Sprintf("\n👁 %d  📨 %d", job.Views, job.ApplicationCount))

	if job.Featured {
		sb.WriteString("  ⭐ featured")
	}

	return sb.String()
}

// FormatJobDetails is the full card shown from the details button.
func FormatJobDetails(job models.Job) string {
	var sb strings.Builder

	sb.WriteString(FormatJob(job))
	sb.WriteString("\n\n")
	sb.WriteString(EscapeMarkdown(TruncateString(job.Description, 1500)))

	writeList(&sb, "Responsibilities", job.Responsibilities)
	writeList(&sb, "Requirements", job.Requirements)
	writeList(&sb, "Benefits", job.Benefits)

	switch job.ApplicationMethod {
	case models.ApplicationMethodEmail:
		sb.WriteString(fmt.Sprintf("\n\n✉️ Apply by email: %s", EscapeMarkdown(job.ApplicationEmail)))
	case models.ApplicationMethodExternal:
		sb.WriteString(fmt.Sprintf("\n\n🔗 [Apply on company site](%s)", job.ApplicationURL))
	}

	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("\n\n*%s:*\n", EscapeMarkdown(title)))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("• %s\n", EscapeMarkdown(item)))
	}
}

// FormatArchivedJob renders a job that is no longer served by the marketplace.
func FormatArchivedJob(job *models.ArchivedJob) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🗄 *%s*\n\n", EscapeMarkdown(job.Title)))
	sb.WriteString(fmt.Sprintf("🏢 *Company:* %s\n", EscapeMarkdown(job.Company)))
	sb.WriteString(fmt.Sprintf("📍 *Location:* %s\n", EscapeMarkdown(job.Location)))
	sb.WriteString(fmt.Sprintf("💰 *Salary:* %s\n", EscapeMarkdown(job.FormattedSalary)))
	sb.WriteString(fmt.Sprintf("⏳ *Deadline:* %s\n", EscapeMarkdown(job.ApplicationDeadline.Format("02 Jan 2006"))))
	sb.WriteString("\n_This job is no longer available on the marketplace_")

	return sb.String()
}

// FormatDeadline turns a day count into a short label. Negative means the
// deadline has passed.
func FormatDeadline(days int) string {
	switch {
	case days < 0:
		return "closed"
	case days == 0:
		return "closes today"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

var applicationStatusIcons = map[models.ApplicationStatus]string{
	models.ApplicationPending:  "🕓",
	models.ApplicationReviewed: "👀",
	models.ApplicationAccepted: "✅",
	models.ApplicationRejected: "❌",
}

func FormatApplicationStatus(status models.ApplicationStatus) string {
	icon, ok := applicationStatusIcons[status]
	if !ok {
		icon = "•"
	}
	return fmt.Sprintf("%s %s", icon, status)
}

// FormatApplication renders an application together with the job it targets
func FormatApplication(item store.ApplicationWithJob) string {
	app := item.Application
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*\n", EscapeMarkdown(item.Job.Title)))
	sb.WriteString(fmt.Sprintf("🏢 %s\n\n", EscapeMarkdown(item.Job.Company)))
	sb.WriteString(fmt.Sprintf("*Status:* %s\n", EscapeMarkdown(FormatApplicationStatus(app.Status))))
	sb.WriteString(fmt.Sprintf("*Applied:* %s\n", EscapeMarkdown(app.CreatedAt.Format("02 Jan 2006"))))

	if app.InterviewDate != nil {
		sb.WriteString(fmt.Sprintf("*Interview:* %s\n", EscapeMarkdown(app.InterviewDate.Format("02 Jan 2006 15:04"))))
	}

	if app.CoverLetter != "" {
		sb.WriteString(fmt.Sprintf("\n_%s_\n", EscapeMarkdown(TruncateString(app.CoverLetter, 300))))
	}

	if app.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n📝 %s\n", EscapeMarkdown(app.Notes)))
	}

	sb.WriteString(fmt.Sprintf("\n`%s`", app.ID))

	return sb.String()
}

// FormatSavedJob renders a saved job. job is nil when the job is not cached.
func FormatSavedJob(saved models.SavedJob, job *models.Job) string {
	var sb strings.Builder

	if job != nil {
		sb.WriteString(fmt.Sprintf("⭐ *%s*\n", EscapeMarkdown(job.Title)))
		sb.WriteString(fmt.Sprintf("🏢 %s\n", EscapeMarkdown(job.Company)))
		sb.WriteString(fmt.Sprintf("⏳ %s\n", EscapeMarkdown(FormatDeadline(job.DaysUntilDeadline))))
	} else {
		sb.WriteString(fmt.Sprintf("⭐ *Job* `%s`\n", saved.JobID))
	}

	sb.WriteString(fmt.Sprintf("*Saved:* %s\n", EscapeMarkdown(saved.CreatedAt.Format("02 Jan 2006"))))

	if saved.Notes != "" {
		sb.WriteString(fmt.Sprintf("📝 %s\n", EscapeMarkdown(saved.Notes)))
	}

	return sb.String()
}

// FormatChat renders one line of the chat list.
func FormatChat(chat models.Chat, unread int, selfID string) string {
	var others []string
	for _, p := range chat.Participants {
		if p != selfID {
			others = append(others, p)
		}
	}

	title := strings.Join(others, ", ")
	if title == "" {
		title = chat.ID
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("💬 *%s*", EscapeMarkdown(title)))
	if unread > 0 {
		sb.WriteString(fmt.Sprintf("  🔴 %d", unread))
	}
	sb.WriteString("\n")

	if chat.LastMessage != nil {
		sb.WriteString(EscapeMarkdown(TruncateString(chat.LastMessage.Content, 80)))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("`%s`", chat.ID))

	return sb.String()
}

// FormatMessage renders one chat message. Own messages carry a delivery mark.
func FormatMessage(msg models.Message, selfID string, status models.MessageStatus) string {
	sender := EscapeMarkdown(msg.Sender)
	if msg.Sender == selfID {
		sender = "You"
	}

	line := fmt.Sprintf("*%s* %s\n%s",
		sender,
		EscapeMarkdown(msg.CreatedAt.Format("15:04")),
		EscapeMarkdown(msg.Content),
	)

	if msg.Sender == selfID {
		mark := "✓"
		if status == models.MessageRead {
			mark = "✓✓"
		}
		line += " " + mark
	}

	return line
}

func FormatUser(user models.User) string {
	status := "🟢"
	switch user.Status {
	case models.UserSuspended:
		status = "⛔"
	case models.UserInactive:
		status = "⚪"
	}

	return fmt.Sprintf("%s *%s* \\(%s\\)\n%s\n`%s`",
		status,
		EscapeMarkdown(user.Name),
		EscapeMarkdown(string(user.Role)),
		EscapeMarkdown(user.Email),
		user.ID,
	)
}

func FormatAdminAnalytics(a models.AdminAnalytics) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*📊 Platform, last %s*\n\n", EscapeMarkdown(a.TimeRange)))
	sb.WriteString(fmt.Sprintf("👥 Users: %d\n", a.TotalUsers))
	sb.WriteString(fmt.Sprintf("🧑‍💼 Recruiters: %d\n", a.TotalRecruiters))
	sb.WriteString(fmt.Sprintf("💼 Jobs: %d \\(%d active\\)\n", a.TotalJobs, a.ActiveJobs))
	sb.WriteString(fmt.Sprintf("📨 Applications: %d\n", a.TotalApplications))

	writeCounts(&sb, "By status", a.ApplicationsByStatus)
	writeCounts(&sb, "Top locations", a.JobsByLocation)

	return sb.String()
}

func FormatRecruiterAnalytics(a models.RecruiterAnalytics) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*📊 Your jobs, last %s*\n\n", EscapeMarkdown(a.TimeRange)))
	sb.WriteString(fmt.Sprintf("💼 Jobs: %d \\(%d active\\)\n", a.TotalJobs, a.ActiveJobs))
	sb.WriteString(fmt.Sprintf("📨 Applications: %d\n", a.TotalApplications))
	sb.WriteString(fmt.Sprintf("👁 Views: %d\n", a.TotalViews))

	writeCounts(&sb, "By status", a.ApplicationsByStatus)

	if len(a.TopJobs) > 0 {
		sb.WriteString("\n*Top jobs:*\n")
		for i, job := range a.TopJobs {
			sb.WriteString(fmt.Sprintf("%d\\. %s: %d applications, %d views\n",
				i+1, EscapeMarkdown(job.Title), job.Applications, job.Views))
		}
	}

	return sb.String()
}

func writeCounts(sb *strings.Builder, title string, counts []models.CategoryCount) {
	if len(counts) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("\n*%s:*\n", EscapeMarkdown(title)))
	for _, c := range counts {
		sb.WriteString(fmt.Sprintf("• %s: %d\n", EscapeMarkdown(c.Name), c.Count))
	}
}

func FormatNewJobsHeader(count int) string {
	if count == 1 {
		return "🔔 *New job\\!*"
	}
	return fmt.Sprintf("🔔 *%d new jobs\\!*", count)
}

func FormatUnreadNotice(chat models.Chat, msg models.Message) string {
	return fmt.Sprintf("💬 *New message from %s*\n%s\n\nOpen with /read %s",
		EscapeMarkdown(msg.Sender),
		EscapeMarkdown(TruncateString(msg.Content, 200)),
		EscapeMarkdown(chat.ID),
	)
}

func FormatWelcomeMessage(firstName string, linked bool) string {
	name := firstName
	if name == "" {
		name = "there"
	}

	greeting := fmt.Sprintf("👋 Hi, *%s*\\!\n\nI'm the job marketplace bot\\.\n\n", EscapeMarkdown(name))

	if !linked {
		return greeting + `To get started, link your marketplace account:
/link \<api token\>

You can create a token in your profile settings on the marketplace\.`
	}

	return greeting + `*What I can do:*
• Show jobs for your role
• Track your applications and saved jobs
• Notify you about new jobs and messages

Use the menu below or /help`
}

func FormatHelpMessage(role models.Role) string {
	var sb strings.Builder

	sb.WriteString(`*📖 Help*

/start \- start the bot
/link \<token\> \- link your marketplace account
/unlink \- forget the linked account
/jobs \- jobs for your role
/applications \- applications
/chats \- your chats
/read \<chat\> \- open a chat and mark it read
/send \<chat\> \<text\> \- send a message
/newchat \<user\> \- start a chat
/notify on\|off \- new job notifications
`)

	switch role {
	case models.RoleUser:
		sb.WriteString("/saved \\- saved jobs\n")
	case models.RoleRecruiter:
		sb.WriteString("/note \\<application\\> \\<text\\> \\- add a note\n")
		sb.WriteString("/stats \\[range\\] \\- your job analytics\n")
	case models.RoleAdmin:
		sb.WriteString("/note \\<application\\> \\<text\\> \\- add a note\n")
		sb.WriteString("/stats \\[range\\] \\- platform analytics\n")
		sb.WriteString("/users \\- manage users\n")
		sb.WriteString("/suspend \\<user\\>, /activate \\<user\\> \\- change user status\n")
	}

	return sb.String()
}

func FormatNotLinkedMessage() string {
	return `🔒 *Account not linked*

Link your marketplace account first:
/link \<api token\>`
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	return replacer.Replace(text)
}

// TruncateString cuts s to at most maxLen runes, ending with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// FormatTimeAgo is used for last-check timestamps.
func FormatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d d ago", int(d.Hours()/24))
	}
}
