package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// LinkedAccount ties a Telegram user to a marketplace account.
type LinkedAccount struct {
	TelegramID        int64      `db:"telegram_id"`
	MarketplaceUserID string     `db:"marketplace_user_id"`
	Role              string     `db:"role"`
	APIToken          string     `db:"api_token"`
	NotifyEnabled     bool       `db:"notify_enabled"`
	CreatedAt         time.Time  `db:"created_at"`
	LastCheck         *time.Time `db:"last_check"`
}

type ArchivedJob struct {
	ID                  string    `db:"id"`
	Title               string    `db:"title"`
	Company             string    `db:"company"`
	Location            string    `db:"location"`
	FormattedSalary     string    `db:"formatted_salary"`
	ApplicationDeadline time.Time `db:"application_deadline"`
	RecruiterID         string    `db:"recruiter_id"`
	RawData             RawJSON   `db:"raw_data"`
	ArchivedAt          time.Time `db:"archived_at"`
}

type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.RawMessage(r).MarshalJSON()
}

func (r *RawJSON) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	*r = RawJSON(bytes)
	return nil
}
