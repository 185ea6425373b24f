package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// UserProfile mirrors a user account owned by the hosted auth provider.
// The ID is the provider's user UUID, never generated locally. Rows are
// upserted on sign-in; no credentials are ever stored here.
type UserProfile struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Sign-in bookkeeping
	LastSeenAt *time.Time `json:"last_seen_at"`

	// Background recompute schedule (calculated from cron expression)
	LastRecomputeAt *time.Time `json:"last_recompute_at"`
	NextRecomputeAt *time.Time `json:"next_recompute_at"`

	// Relationships
	Trips []Trip `json:"trips,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

// Trip represents one period outside the UK: the day the user left and the
// day they returned. Only whole days strictly between the two count as
// absences, which is the calculator's concern, not the model's.
type Trip struct {
	BaseModel
	UserID    string    `json:"user_id" gorm:"not null;index"`
	StartDate time.Time `json:"start_date" gorm:"not null"` // date the user left the UK
	EndDate   time.Time `json:"end_date" gorm:"not null"`   // date the user returned
	Note      string    `json:"note"`
}

// BeforeSave normalizes trip dates to midnight UTC so date-only comparisons
// behave regardless of how the dates were parsed.
func (t *Trip) BeforeSave(tx *gorm.DB) error {
	t.StartDate = DateOnly(t.StartDate)
	t.EndDate = DateOnly(t.EndDate)
	return nil
}

// EligibilitySnapshot stores one result of the earliest-application-date
// scan for a user. The worker appends a row per recompute; readers take the
// newest per user. EarliestDate is nil when no date within the search
// horizon was eligible, in which case the detail fields describe nothing.
type EligibilitySnapshot struct {
	BaseModel
	UserID     string    `json:"user_id" gorm:"not null;index"`
	PolicyName string    `json:"policy_name" gorm:"not null"`
	AsOf       time.Time `json:"as_of" gorm:"not null"` // the "today" the scan started from

	EarliestDate          *time.Time `json:"earliest_date"`
	Days12Months          int        `json:"days_12_months"`
	Days5Years            int        `json:"days_5_years"`
	PresenceDate          *time.Time `json:"presence_date_5y"`
	PresentOnPresenceDate bool       `json:"present_on_presence_date"`

	ComputedAt time.Time `json:"computed_at" gorm:"not null"`
}

// DateOnly truncates a time to midnight UTC on the same calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&UserProfile{}, &Trip{}, &EligibilitySnapshot{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
