package intake

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Question is a follow-up question before it enters the ledger.
type Question struct {
	Text     string   `json:"question"`
	Category Category `json:"category"`
	Reason   string   `json:"reason,omitempty"`
}

// QAEntry is one ledger row. Question, Category and Round never change after creation;
// only Answer moves from empty to non-empty.
type QAEntry struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Category   Category   `json:"category"`
	Round      int        `json:"round"`
	CreatedAt  time.Time  `json:"created_at"`
	Reason     string     `json:"reason,omitempty"`
	Answer     string     `json:"answer"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

func (e QAEntry) Answered() bool { return e.Answer != "" }

// EntryID derives the ledger id for the seq-th (1-based) question of a round.
func EntryID(caseID uuid.UUID, round, seq int) string {
	return fmt.Sprintf("%s-r%d-q%d", caseID, round, seq)
}

// AppendQuestions adds qs to the end of the ledger, tagged with the current round.
// Sequence numbers continue after any entries the round already holds, so ids stay unique.
func AppendQuestions(s CaseState, qs []Question, now time.Time) (CaseState, []QAEntry) {
	next := s.clone()
	round := next.Meta.CurrentRound
	seq := len(next.ByRound(round))
	added := make([]QAEntry, 0, len(qs))
	for _, q := range qs {
		seq++
		e := QAEntry{
			ID:        EntryID(next.Meta.CaseID, round, seq),
			Question:  q.Text,
			Category:  q.Category,
			Round:     round,
			CreatedAt: now,
			Reason:    q.Reason,
		}
		next.QALog = append(next.QALog, e)
		added = append(added, e)
	}
	next.Meta.TotalQuestions += len(added)
	next.Meta.UpdatedAt = now
	return next, added
}

type AnswerStatus string

const (
	AnswerRecorded     AnswerStatus = "recorded"
	AnswerOverwritten  AnswerStatus = "overwritten"
	AnswerUnchanged    AnswerStatus = "unchanged"
	AnswerUnknownEntry AnswerStatus = "unknown_entry"
	AnswerEmpty        AnswerStatus = "empty"
)

// AnswerOutcome reports what RecordAnswers did with one submitted key.
type AnswerOutcome struct {
	EntryID string       `json:"entry_id"`
	Status  AnswerStatus `json:"status"`
}

// Applied reports whether the ledger now holds the submitted text for this entry.
func (o AnswerOutcome) Applied() bool {
	return o.Status == AnswerRecorded || o.Status == AnswerOverwritten || o.Status == AnswerUnchanged
}

// RecordAnswers sets the answer of every entry whose id is a key in answers with a non-blank
// value. Re-submitting an entry overwrites it in place; the outcome list makes that visible.
func RecordAnswers(s CaseState, answers map[string]string, now time.Time) (CaseState, []AnswerOutcome) {
	next := s.clone()
	seen := make(map[string]bool, len(answers))
	var out []AnswerOutcome
	for i := range next.QALog {
		e := &next.QALog[i]
		raw, ok := answers[e.ID]
		if !ok {
			continue
		}
		seen[e.ID] = true
		text := strings.TrimSpace(raw)
		var status AnswerStatus
		switch {
		case text == "":
			status = AnswerEmpty
		case e.Answer == "":
			status = AnswerRecorded
		case e.Answer == text:
			status = AnswerUnchanged
		default:
			status = AnswerOverwritten
		}
		if status == AnswerRecorded || status == AnswerOverwritten {
			e.Answer = text
			at := now
			e.AnsweredAt = &at
		}
		out = append(out, AnswerOutcome{EntryID: e.ID, Status: status})
	}
	var unknown []string
	for id := range answers {
		if !seen[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		out = append(out, AnswerOutcome{EntryID: id, Status: AnswerUnknownEntry})
	}

	total := 0
	for _, e := range next.QALog {
		if e.Answered() {
			total++
		}
	}
	next.Meta.TotalAnswers = total
	next.Meta.UpdatedAt = now
	return next, out
}

// ByRound returns the entries asked in round, in ledger order.
func (s CaseState) ByRound(round int) []QAEntry {
	var out []QAEntry
	for _, e := range s.QALog {
		if e.Round == round {
			out = append(out, e)
		}
	}
	return out
}

// UnansweredInCurrentRound returns the open questions the caller still owes answers for.
func (s CaseState) UnansweredInCurrentRound() []QAEntry {
	var out []QAEntry
	for _, e := range s.ByRound(s.Meta.CurrentRound) {
		if !e.Answered() {
			out = append(out, e)
		}
	}
	return out
}

// AllAnswered reports whether every ledger entry carries an answer.
func (s CaseState) AllAnswered() bool {
	for _, e := range s.QALog {
		if !e.Answered() {
			return false
		}
	}
	return true
}

// AnsweredRounds counts the distinct rounds with at least one answered entry.
func (s CaseState) AnsweredRounds() int {
	seen := map[int]bool{}
	for _, e := range s.QALog {
		if e.Answered() {
			seen[e.Round] = true
		}
	}
	return len(seen)
}

// Answered returns every answered entry across all rounds.
func (s CaseState) Answered() []QAEntry {
	var out []QAEntry
	for _, e := range s.QALog {
		if e.Answered() {
			out = append(out, e)
		}
	}
	return out
}

// QuestionTexts lists every question asked so far, for de-duplicating new ones.
func (s CaseState) QuestionTexts() []string {
	out := make([]string, 0, len(s.QALog))
	for _, e := range s.QALog {
		out = append(out, e.Question)
	}
	return out
}
