// Package gatewaytest provides a scripted Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/relocation-intake/internal/domain/intake"
	"github.com/yungbote/relocation-intake/internal/gateway"
)

// Fake replays scripted responses. FollowUps are consumed in order; once exhausted,
// GenerateFollowUps returns no questions. A nil Merge echoes the snapshot back.
type Fake struct {
	mu sync.Mutex

	Categorized   intake.Patch
	CategorizeErr error
	FollowUps     []gateway.FollowUps
	Merge         func(snap intake.Snapshot, answered []intake.QAEntry) (intake.Patch, error)

	FollowUpRequests []gateway.FollowUpRequest
	MergeCalls       int
}

// New returns a Fake whose categorize result sets goal.
func New(goal string) *Fake {
	return &Fake{Categorized: FullPatch(map[string]string{"goal": goal})}
}

func (f *Fake) Categorize(context.Context, map[string]string) (intake.Patch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Categorized, f.CategorizeErr
}

func (f *Fake) GenerateFollowUps(_ context.Context, req gateway.FollowUpRequest) gateway.FollowUps {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FollowUpRequests = append(f.FollowUpRequests, req)
	if len(f.FollowUps) == 0 {
		return gateway.FollowUps{Reasoning: "nothing to add"}
	}
	next := f.FollowUps[0]
	f.FollowUps = f.FollowUps[1:]
	return next
}

func (f *Fake) MergeAnswers(_ context.Context, snap intake.Snapshot, answered []intake.QAEntry) (intake.Patch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MergeCalls++
	if f.Merge == nil {
		return snap.AsPatch(), nil
	}
	return f.Merge(snap, answered)
}

// Set replaces the scripted state under the lock.
func (f *Fake) Set(fn func(f *Fake)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// Calls returns how many follow-up and merge calls were made.
func (f *Fake) Calls() (followUps, merges int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.FollowUpRequests), f.MergeCalls
}

// FullPatch is a patch naming every slot, empty unless set in values.
func FullPatch(values map[string]string) intake.Patch {
	p := intake.EmptySnapshot().AsPatch()
	for k, v := range values {
		p[k] = v
	}
	return p
}

// Ask scripts n questions with texts derived from prefix.
func Ask(n int, prefix string) gateway.FollowUps {
	qs := make([]intake.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, intake.Question{Text: fmt.Sprintf("%s question %d?", prefix, i), Category: intake.CategoryFinance})
	}
	return gateway.FollowUps{Questions: qs, Reasoning: "more detail needed"}
}

var _ gateway.Gateway = (*Fake)(nil)
