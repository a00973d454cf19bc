package intake

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

// DefaultMaxRounds is the round budget used when a case is created without one.
const DefaultMaxRounds = 3

// CaseMeta holds round counters and bookkeeping for one case.
// CurrentRound never exceeds MaxRounds+1 and IsComplete never goes back to false.
type CaseMeta struct {
	CaseID         uuid.UUID `json:"case_id"`
	CurrentRound   int       `json:"current_round"`
	MaxRounds      int       `json:"max_rounds"`
	IsComplete     bool      `json:"is_complete"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TotalQuestions int       `json:"total_questions"`
	TotalAnswers   int       `json:"total_answers"`
}

// CaseState is the whole persisted structure of one case.
type CaseState struct {
	Snapshot Snapshot  `json:"snapshot"`
	QALog    []QAEntry `json:"qa_log"`
	Meta     CaseMeta  `json:"meta"`
}

// NewCaseState starts a case at round 1 with the given snapshot and an empty ledger.
func NewCaseState(caseID uuid.UUID, maxRounds int, snapshot Snapshot, now time.Time) CaseState {
	if maxRounds < 1 {
		maxRounds = DefaultMaxRounds
	}
	return CaseState{
		Snapshot: snapshot,
		QALog:    []QAEntry{},
		Meta: CaseMeta{
			CaseID:       caseID,
			CurrentRound: 1,
			MaxRounds:    maxRounds,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

func (s CaseState) clone() CaseState {
	next := s
	next.QALog = make([]QAEntry, len(s.QALog))
	copy(next.QALog, s.QALog)
	return next
}

// WithSnapshot replaces the snapshot wholesale.
func (s CaseState) WithSnapshot(snap Snapshot, now time.Time) CaseState {
	next := s.clone()
	next.Snapshot = snap
	next.Meta.UpdatedAt = now
	return next
}

// Advance moves to the next round.
func (s CaseState) Advance(now time.Time) (CaseState, error) {
	if s.Meta.IsComplete {
		return s, pkgerrors.ErrCaseComplete
	}
	if s.Meta.CurrentRound >= s.Meta.MaxRounds+1 {
		return s, fmt.Errorf("%w: round %d already past budget %d", pkgerrors.ErrInvalidArgument, s.Meta.CurrentRound, s.Meta.MaxRounds)
	}
	next := s.clone()
	next.Meta.CurrentRound++
	next.Meta.UpdatedAt = now
	return next, nil
}

// Complete marks the case done. Completing a complete case is a no-op.
func (s CaseState) Complete(now time.Time) CaseState {
	if s.Meta.IsComplete {
		return s
	}
	next := s.clone()
	next.Meta.IsComplete = true
	next.Meta.UpdatedAt = now
	return next
}

// IsFinalRound reports whether the current round is the last one the budget allows.
func (s CaseState) IsFinalRound() bool {
	return s.Meta.CurrentRound >= s.Meta.MaxRounds
}

type stateDocument struct {
	Snapshot json.RawMessage `json:"snapshot"`
	QALog    []QAEntry       `json:"qa_log"`
	Meta     *CaseMeta       `json:"meta"`
}

// EncodeState renders the persisted document.
func EncodeState(s CaseState) ([]byte, error) {
	if s.QALog == nil {
		s.QALog = []QAEntry{}
	}
	return json.Marshal(s)
}

// DecodeState parses and validates a persisted document. Any structural problem wraps
// ErrCorruptState; the document is never patched up.
func DecodeState(raw []byte) (CaseState, error) {
	var doc stateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return CaseState{}, fmt.Errorf("%w: case document: %v", pkgerrors.ErrCorruptState, err)
	}
	if len(doc.Snapshot) == 0 {
		return CaseState{}, fmt.Errorf("%w: case document has no snapshot", pkgerrors.ErrCorruptState)
	}
	snap, err := DecodeSnapshot(doc.Snapshot)
	if err != nil {
		return CaseState{}, err
	}
	if doc.Meta == nil {
		return CaseState{}, fmt.Errorf("%w: case document has no meta", pkgerrors.ErrCorruptState)
	}
	meta := *doc.Meta
	if meta.CaseID == uuid.Nil {
		return CaseState{}, fmt.Errorf("%w: meta.case_id missing", pkgerrors.ErrCorruptState)
	}
	if meta.MaxRounds < 1 || meta.CurrentRound < 1 || meta.CurrentRound > meta.MaxRounds+1 {
		return CaseState{}, fmt.Errorf("%w: round %d outside budget %d", pkgerrors.ErrCorruptState, meta.CurrentRound, meta.MaxRounds)
	}
	ids := make(map[string]bool, len(doc.QALog))
	for _, e := range doc.QALog {
		if e.ID == "" || ids[e.ID] {
			return CaseState{}, fmt.Errorf("%w: ledger entry id %q missing or duplicated", pkgerrors.ErrCorruptState, e.ID)
		}
		ids[e.ID] = true
		if e.Round < 1 || e.Round > meta.CurrentRound {
			return CaseState{}, fmt.Errorf("%w: ledger entry %s has round %d", pkgerrors.ErrCorruptState, e.ID, e.Round)
		}
	}
	log := doc.QALog
	if log == nil {
		log = []QAEntry{}
	}
	return CaseState{Snapshot: snap, QALog: log, Meta: meta}, nil
}
