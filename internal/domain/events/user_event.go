package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	// Case lifecycle
	EventInitialSubmission   = "initial_submission"   // metadata: {fields}
	EventCategorization      = "categorization"       // metadata: {snapshot}
	EventAssessmentCompleted = "assessment_completed" // metadata: {reasoning, rounds}
	// Rounds
	EventFollowUpQuestion = "follow_up_question" // question, category, round, metadata: {entry_id, reason}
	EventFollowUpAnswer   = "follow_up_answer"   // question, answer, category, round, metadata: {entry_id, status}
	// Model output
	EventLLMAnalysis = "llm_analysis" // metadata: {reasoning, is_complete, degraded, question_count}
)

var eventTypes = map[string]bool{
	EventInitialSubmission:   true,
	EventCategorization:      true,
	EventAssessmentCompleted: true,
	EventFollowUpQuestion:    true,
	EventFollowUpAnswer:      true,
	EventLLMAnalysis:         true,
}

// IsEventType reports whether t is one of the known event tags.
func IsEventType(t string) bool { return eventTypes[t] }

// UserEvent is an immutable fact. EventID is assigned on write: 1 + the user's current maximum.
type UserEvent struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_event_seq,priority:1" json:"user_id"`
	EventID int64      `gorm:"column:event_id;not null;uniqueIndex:idx_user_event_seq,priority:2" json:"event_id"`
	CaseID  *uuid.UUID `gorm:"type:uuid;column:case_id;index" json:"case_id,omitempty"`
	Type    string     `gorm:"column:type;not null;index" json:"type"`

	Question   string   `gorm:"column:question;type:text" json:"question,omitempty"`
	Answer     string   `gorm:"column:answer;type:text" json:"answer,omitempty"`
	Category   string   `gorm:"column:category;index" json:"category,omitempty"`
	Confidence *float64 `gorm:"column:confidence" json:"confidence,omitempty"`
	Round      *int     `gorm:"column:round" json:"round,omitempty"`
	// Round budget of the case at write time; the summary derives completion from it.
	MaxRounds int            `gorm:"column:max_rounds;not null;default:0" json:"max_rounds,omitempty"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (UserEvent) TableName() string { return "user_event" }
