package store

import (
	"math"
	"time"

	"jobmarket-bot/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

var currencySymbols = map[models.Currency]string{
	models.CurrencyUSD: "$",
	models.CurrencyEUR: "€",
	models.CurrencyGBP: "£",
	models.CurrencyINR: "₹",
	models.CurrencyCAD: "C$",
	models.CurrencyAUD: "A$",
}

func currencySymbol(c models.Currency) string {
	if sym, ok := currencySymbols[c]; ok {
		return sym
	}
	if c == "" {
		return "$"
	}
	return string(c) + " "
}

// FormatSalary renders "$60,000 - $80,000/yearly", collapsing equal bounds
// to a single amount.
func FormatSalary(s models.Salary) string {
	sym := currencySymbol(s.Currency)

	text := sym + amountPrinter.Sprintf("%d", s.Min)
	if s.Max != s.Min {
		text += " - " + sym + amountPrinter.Sprintf("%d", s.Max)
	}

	if s.Period != "" {
		text += "/" + string(s.Period)
	}
	return text
}

// DaysUntilDeadline is ceil((deadline - now) / 24h); negative once the
// deadline has passed.
func DaysUntilDeadline(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// deriveJob fills the virtual fields. The values are a snapshot of the
// moment of ingestion and are not recomputed until the job is ingested again.
func deriveJob(job models.Job, now time.Time) models.Job {
	job.FormattedSalary = FormatSalary(job.Salary)
	job.DaysUntilDeadline = DaysUntilDeadline(job.ApplicationDeadline, now)
	return job
}
