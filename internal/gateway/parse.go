package gateway

import (
	"fmt"
	"strings"

	"github.com/yungbote/relocation-intake/internal/domain/intake"
)

// ParseSnapshot is strict: the object must name every slot with a string.
func ParseSnapshot(obj map[string]any) (intake.Patch, error) {
	if obj == nil {
		return nil, fmt.Errorf("empty snapshot response")
	}
	p := intake.Patch(obj)
	if err := intake.RequireComplete(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseFollowUps is lenient. Blank questions and repeats of previous questions are dropped,
// unknown category tags become "other", and at most MaxQuestions are kept. ok is false only
// when the response has no usable questions array.
func ParseFollowUps(obj map[string]any, previous []string) (FollowUps, bool) {
	raw, ok := obj["questions"].([]any)
	if !ok {
		return FollowUps{}, false
	}
	seen := make(map[string]bool, len(previous)+len(raw))
	for _, q := range previous {
		seen[normalizeQuestion(q)] = true
	}

	out := FollowUps{Questions: make([]intake.Question, 0, len(raw))}
	for _, item := range raw {
		if len(out.Questions) >= MaxQuestions {
			break
		}
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := strings.TrimSpace(stringField(m, "question"))
		key := normalizeQuestion(text)
		if text == "" || seen[key] {
			continue
		}
		seen[key] = true
		out.Questions = append(out.Questions, intake.Question{
			Text:     text,
			Category: intake.CategoryOrOther(stringField(m, "category")),
			Reason:   strings.TrimSpace(stringField(m, "reason")),
		})
	}
	out.IsComplete, _ = obj["is_complete"].(bool)
	out.Reasoning = strings.TrimSpace(stringField(obj, "reasoning"))
	if out.Reasoning == "" {
		out.Reasoning = intake.DefaultFollowUpReasoning
	}
	return out, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
