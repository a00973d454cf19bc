package domain

import (
	"github.com/yungbote/relocation-intake/internal/domain/events"
	"github.com/yungbote/relocation-intake/internal/domain/intake"
	"github.com/yungbote/relocation-intake/internal/domain/jobs"
)

const (
	EventInitialSubmission   = events.EventInitialSubmission
	EventCategorization      = events.EventCategorization
	EventAssessmentCompleted = events.EventAssessmentCompleted
	EventFollowUpQuestion    = events.EventFollowUpQuestion
	EventFollowUpAnswer      = events.EventFollowUpAnswer
	EventLLMAnalysis         = events.EventLLMAnalysis
)

type IntakeCase = intake.IntakeCase

type UserEvent = events.UserEvent
type UserSummary = events.UserSummary

type JobRun = jobs.JobRun
