package models

import (
	"slices"
	"time"
)

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeFreelance  JobType = "freelance"
)

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

type JobStatus string

const (
	JobStatusDraft    JobStatus = "draft"
	JobStatusActive   JobStatus = "active"
	JobStatusInactive JobStatus = "inactive"
	JobStatusFilled   JobStatus = "filled"
	JobStatusClosed   JobStatus = "closed"
)

type ApplicationMethod string

const (
	ApplicationMethodPlatform ApplicationMethod = "platform"
	ApplicationMethodEmail    ApplicationMethod = "email"
	ApplicationMethodExternal ApplicationMethod = "external"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
)

type SalaryPeriod string

const (
	SalaryHourly  SalaryPeriod = "hourly"
	SalaryDaily   SalaryPeriod = "daily"
	SalaryWeekly  SalaryPeriod = "weekly"
	SalaryMonthly SalaryPeriod = "monthly"
	SalaryYearly  SalaryPeriod = "yearly"
)

var JobTypeDisplayNames = map[JobType]string{
	JobTypeFullTime:   "Full-time",
	JobTypePartTime:   "Part-time",
	JobTypeContract:   "Contract",
	JobTypeInternship: "Internship",
	JobTypeFreelance:  "Freelance",
}

var ExperienceDisplayNames = map[ExperienceLevel]string{
	ExperienceEntry:     "Entry level",
	ExperienceMid:       "Mid level",
	ExperienceSenior:    "Senior",
	ExperienceExecutive: "Executive",
}

func GetJobTypeDisplayName(t JobType) string {
	if name, ok := JobTypeDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

func GetExperienceDisplayName(l ExperienceLevel) string {
	if name, ok := ExperienceDisplayNames[l]; ok {
		return name
	}
	return string(l)
}

type Salary struct {
	Min      int          `json:"min" validate:"gte=0,ltefield=Max"`
	Max      int          `json:"max" validate:"gte=0"`
	Currency Currency     `json:"currency" validate:"required,oneof=USD EUR GBP INR CAD AUD"`
	Period   SalaryPeriod `json:"period" validate:"required,oneof=hourly daily weekly monthly yearly"`
}

type Job struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Company             string            `json:"company"`
	Description         string            `json:"description"`
	Location            string            `json:"location"`
	Type                JobType           `json:"type"`
	ExperienceLevel     ExperienceLevel   `json:"experienceLevel"`
	Salary              Salary            `json:"salary"`
	Status              JobStatus         `json:"status"`
	Responsibilities    []string          `json:"responsibilities"`
	Requirements        []string          `json:"requirements"`
	Benefits            []string          `json:"benefits"`
	Tags                []string          `json:"tags"`
	ApplicationMethod   ApplicationMethod `json:"applicationMethod"`
	ApplicationEmail    string            `json:"applicationEmail,omitempty"`
	ApplicationURL      string            `json:"applicationUrl,omitempty"`
	IsRemote            bool              `json:"isRemote"`
	Featured            bool              `json:"featured"`
	PromotedUntil       *time.Time        `json:"promotedUntil,omitempty"`
	ApplicationDeadline time.Time         `json:"applicationDeadline"`
	RecruiterID         string            `json:"recruiterId"`
	ApplicationCount    int               `json:"applicationCount"`
	Views               int               `json:"views"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`

	// computed on ingestion, never sent back to the server
	FormattedSalary   string `json:"formattedSalary,omitempty"`
	DaysUntilDeadline int    `json:"daysUntilDeadline"`
}

// Clone returns a copy that shares no slices with j.
func (j Job) Clone() Job {
	j.Responsibilities = slices.Clone(j.Responsibilities)
	j.Requirements = slices.Clone(j.Requirements)
	j.Benefits = slices.Clone(j.Benefits)
	j.Tags = slices.Clone(j.Tags)
	if j.PromotedUntil != nil {
		t := *j.PromotedUntil
		j.PromotedUntil = &t
	}
	return j
}

// IsPromoted reports whether the job is promoted at the given moment.
func (j Job) IsPromoted(now time.Time) bool {
	return j.PromotedUntil != nil && j.PromotedUntil.After(now)
}

// JobInput is the body of create and update requests.
type JobInput struct {
	Title               string            `json:"title" validate:"required"`
	Company             string            `json:"company" validate:"required"`
	Description         string            `json:"description" validate:"required"`
	Location            string            `json:"location" validate:"required"`
	Type                JobType           `json:"type" validate:"required,oneof=full-time part-time contract internship freelance"`
	ExperienceLevel     ExperienceLevel   `json:"experienceLevel" validate:"required,oneof=entry mid senior executive"`
	Salary              Salary            `json:"salary"`
	Status              JobStatus         `json:"status,omitempty" validate:"omitempty,oneof=draft active inactive filled closed"`
	Responsibilities    []string          `json:"responsibilities"`
	Requirements        []string          `json:"requirements"`
	Benefits            []string          `json:"benefits"`
	Tags                []string          `json:"tags"`
	ApplicationMethod   ApplicationMethod `json:"applicationMethod" validate:"required,oneof=platform email external"`
	ApplicationEmail    string            `json:"applicationEmail,omitempty" validate:"required_if=ApplicationMethod email,omitempty,email"`
	ApplicationURL      string            `json:"applicationUrl,omitempty" validate:"required_if=ApplicationMethod external,omitempty,url"`
	IsRemote            bool              `json:"isRemote"`
	Featured            bool              `json:"featured"`
	PromotedUntil       *time.Time        `json:"promotedUntil,omitempty"`
	ApplicationDeadline time.Time         `json:"applicationDeadline" validate:"required"`
}

// InputFromJob builds an update body carrying every writable field of j.
func InputFromJob(j Job) JobInput {
	return JobInput{
		Title:               j.Title,
		Company:             j.Company,
		Description:         j.Description,
		Location:            j.Location,
		Type:                j.Type,
		ExperienceLevel:     j.ExperienceLevel,
		Salary:              j.Salary,
		Status:              j.Status,
		Responsibilities:    slices.Clone(j.Responsibilities),
		Requirements:        slices.Clone(j.Requirements),
		Benefits:            slices.Clone(j.Benefits),
		Tags:                slices.Clone(j.Tags),
		ApplicationMethod:   j.ApplicationMethod,
		ApplicationEmail:    j.ApplicationEmail,
		ApplicationURL:      j.ApplicationURL,
		IsRemote:            j.IsRemote,
		Featured:            j.Featured,
		PromotedUntil:       j.PromotedUntil,
		ApplicationDeadline: j.ApplicationDeadline,
	}
}
