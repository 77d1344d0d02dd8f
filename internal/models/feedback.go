package models

import (
	"time"

	"github.com/google/uuid"
)

// Theme lifecycle states for a feedback item.
const (
	ThemeStatusPending    = "pending"
	ThemeStatusProcessing = "processing"
	ThemeStatusDone       = "done"
	ThemeStatusFailed     = "failed"
)

// Limits on feedback intake and theming.
const (
	MaxMessageLength = 2000
	MaxBulkCount     = 50
	MaxThemeAttempts = 3
	MaxThemeErrorLen = 200
)

// Feedback is a single user-submitted feedback item together with its
// theming sub-state. Theme, Sentiment, Confidence and Summary are set
// together when ThemeStatus reaches "done" and are nil in every other state.
type Feedback struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_feedbacks_user_status,priority:1"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	ThemeStatus    string     `json:"theme_status" gorm:"type:varchar(16);not null;default:'pending';index:idx_feedbacks_user_status,priority:2"`
	ThemeAttempts  int        `json:"theme_attempts" gorm:"not null;default:0"`
	ThemeError     *string    `json:"theme_error,omitempty" gorm:"type:varchar(200)"`
	Theme          *string    `json:"theme,omitempty" gorm:"type:varchar(100);index:idx_feedbacks_user_theme"`
	Sentiment      *string    `json:"sentiment,omitempty" gorm:"type:varchar(16)"`
	Confidence     *float64   `json:"confidence,omitempty"`
	Summary        *string    `json:"summary,omitempty" gorm:"type:varchar(200)"`
	ThemedAt       *time.Time `json:"themed_at,omitempty"`
	ThemeUpdatedAt *time.Time `json:"theme_updated_at,omitempty"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

// Themed reports whether the item carries a complete classifier verdict.
func (f *Feedback) Themed() bool {
	return f.ThemeStatus == ThemeStatusDone &&
		f.Theme != nil && f.Sentiment != nil && f.Confidence != nil && f.Summary != nil
}

// ThemeAnalysis is the classifier verdict written onto a feedback row when
// theming succeeds.
type ThemeAnalysis struct {
	Theme      string  `json:"theme"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// ThemeCount is a per-theme aggregate of done items for one user. It is
// derived on read and never persisted.
type ThemeCount struct {
	Theme string `json:"theme"`
	Total int64  `json:"total"`
}

// FeedbackStats summarizes a user's intake volume.
type FeedbackStats struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
}
