package store

import (
	"testing"
	"time"

	"jobmarket-bot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatSalary(t *testing.T) {
	tests := []struct {
		name   string
		salary models.Salary
		want   string
	}{
		{
			name:   "equal bounds",
			salary: models.Salary{Min: 80000, Max: 80000, Currency: models.CurrencyUSD, Period: models.SalaryYearly},
			want:   "$80,000/yearly",
		},
		{
			name:   "range",
			salary: models.Salary{Min: 60000, Max: 80000, Currency: models.CurrencyUSD, Period: models.SalaryYearly},
			want:   "$60,000 - $80,000/yearly",
		},
		{
			name:   "euro monthly",
			salary: models.Salary{Min: 4500, Max: 5000, Currency: models.CurrencyEUR, Period: models.SalaryMonthly},
			want:   "€4,500 - €5,000/monthly",
		},
		{
			name:   "unknown currency",
			salary: models.Salary{Min: 1000000, Max: 1000000, Currency: "JPY", Period: models.SalaryYearly},
			want:   "JPY 1,000,000/yearly",
		},
		{
			name:   "no currency no period",
			salary: models.Salary{Min: 25, Max: 25},
			want:   "$25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSalary(tt.salary))
		})
	}
}

func TestDaysUntilDeadline(t *testing.T) {
	now := time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"two whole days", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2},
		{"partial day rounds up", now.Add(36 * time.Hour), 2},
		{"same instant", now, 0},
		{"one hour left", now.Add(time.Hour), 1},
		{"passed", now.Add(-36 * time.Hour), -1},
		{"passed by whole days", now.Add(-72 * time.Hour), -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilDeadline(tt.deadline, now))
		})
	}
}
