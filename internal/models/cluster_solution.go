package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ClusterSolution generation states.
const (
	SolutionStatusIdle       = "idle"
	SolutionStatusProcessing = "processing"
	SolutionStatusFailed     = "failed"
)

// Solution priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ActionSteps is an ordered list of remediation steps stored as a JSON
// column.
type ActionSteps []string

func (s ActionSteps) Value() (driver.Value, error) {
	if s == nil {
		s = ActionSteps{}
	}
	return json.Marshal(s)
}

func (s *ActionSteps) Scan(value interface{}) error {
	if value == nil {
		*s = ActionSteps{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for ActionSteps")
	}
}

// ClusterSolution is the cached remediation plan for one (user, theme)
// pair. The (UserID, Theme) pair is unique and backs the upsert performed
// at the start of every generation request. LastFeedbackAt records the
// creation time of the newest themed feedback incorporated into the plan;
// the cached content is reusable only while no newer themed feedback
// exists.
type ClusterSolution struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cluster_solutions_user_theme,priority:1"`
	Theme  string    `json:"theme" gorm:"type:varchar(100);not null;uniqueIndex:idx_cluster_solutions_user_theme,priority:2"`

	Status         string      `json:"status" gorm:"type:varchar(16);not null;default:'processing'"`
	TotalFeedbacks int         `json:"total_feedbacks" gorm:"not null;default:0"`

	SolutionSummary string      `json:"solution_summary" gorm:"type:text"`
	RootCause       string      `json:"root_cause" gorm:"type:text"`
	QuickFix        string      `json:"quick_fix" gorm:"type:text"`
	LongTermFix     string      `json:"long_term_fix" gorm:"type:text"`
	ActionSteps     ActionSteps `json:"action_steps" gorm:"type:jsonb"`
	Priority        string      `json:"priority" gorm:"type:varchar(8)"`
	Confidence      float64     `json:"confidence"`

	LastGeneratedAt *time.Time `json:"last_generated_at,omitempty"`
	LastFeedbackAt  *time.Time `json:"last_feedback_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ClusterSolution) TableName() string {
	return "cluster_solutions"
}

// Stale reports whether the cached plan must be regenerated given the
// newest themed-feedback timestamp for the theme.
func (s *ClusterSolution) Stale(latestFeedbackAt time.Time) bool {
	if s.SolutionSummary == "" {
		return true
	}
	if s.LastFeedbackAt == nil {
		return true
	}
	return latestFeedbackAt.After(*s.LastFeedbackAt)
}
