package events

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/relocation-intake/internal/domain/intake"
)

// AnswerSeparator joins accumulated answers within one category.
const AnswerSeparator = "; "

// UserSummary is a projection of a user's events. It holds nothing that Summarize cannot
// rebuild from the full history, so it is overwritten on every recomputation.
type UserSummary struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`

	Current intake.Snapshot `gorm:"embedded;embeddedPrefix:current_" json:"current"`

	TotalEvents  int        `gorm:"column:total_events;not null" json:"total_events"`
	LastEventID  int64      `gorm:"column:last_event_id;not null" json:"last_event_id"`
	CaseID       *uuid.UUID `gorm:"type:uuid;column:case_id" json:"case_id,omitempty"`
	CurrentRound int        `gorm:"column:current_round;not null" json:"current_round"`
	MaxRounds    int        `gorm:"column:max_rounds;not null" json:"max_rounds"`
	IsComplete   bool       `gorm:"column:is_complete;not null" json:"is_complete"`
	FirstEventAt *time.Time `gorm:"column:first_event_at" json:"first_event_at,omitempty"`
	LastEventAt  *time.Time `gorm:"column:last_event_at" json:"last_event_at,omitempty"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (UserSummary) TableName() string { return "user_summary" }

// Summarize folds a user's full event history into a summary.
//
// Answers accumulate per category across every case. Round and completion describe the
// most recent case only: the round is the latest round among that case's answer events
// (1 when there are none), and the case is complete once an answered round reaches the
// case's round budget or an assessment_completed event was logged for it. defaultMaxRounds is
// used when no event carries a budget.
func Summarize(userID uuid.UUID, history []UserEvent, defaultMaxRounds int) UserSummary {
	evs := make([]UserEvent, len(history))
	copy(evs, history)
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].EventID < evs[j].EventID })

	s := UserSummary{UserID: userID, CurrentRound: 1, MaxRounds: defaultMaxRounds}
	acc := make(map[intake.Category][]string, len(intake.Categories))

	var caseID *uuid.UUID
	answered := false
	for _, e := range evs {
		if e.CaseID != nil && (caseID == nil || *caseID != *e.CaseID) {
			id := *e.CaseID
			caseID = &id
			s.CurrentRound = 1
			s.IsComplete = false
			s.MaxRounds = defaultMaxRounds
			answered = false
		}

		s.TotalEvents++
		s.LastEventID = e.EventID
		at := e.OccurredAt
		if s.FirstEventAt == nil {
			s.FirstEventAt = &at
		}
		s.LastEventAt = &at

		if e.MaxRounds > 0 {
			s.MaxRounds = e.MaxRounds
		}
		if e.Category != "" && strings.TrimSpace(e.Answer) != "" {
			c := intake.CategoryOrOther(e.Category)
			acc[c] = appendUnique(acc[c], strings.TrimSpace(e.Answer))
		}
		switch e.Type {
		case EventFollowUpAnswer:
			answered = true
			if e.Round != nil && *e.Round > 0 {
				s.CurrentRound = *e.Round
			}
		case EventAssessmentCompleted:
			s.IsComplete = true
		}
	}
	if answered && s.MaxRounds > 0 && s.CurrentRound >= s.MaxRounds {
		s.IsComplete = true
	}
	s.CaseID = caseID

	patch := make(intake.Patch, len(acc))
	for c, parts := range acc {
		patch[string(c)] = strings.Join(parts, AnswerSeparator)
	}
	s.Current, _ = intake.Merge(intake.EmptySnapshot(), patch)
	if s.LastEventAt != nil {
		s.UpdatedAt = *s.LastEventAt
	}
	return s
}

func appendUnique(parts []string, v string) []string {
	for _, p := range parts {
		if p == v {
			return parts
		}
	}
	return append(parts, v)
}
