package gateway

import "github.com/yungbote/relocation-intake/internal/domain/intake"

const (
	schemaSnapshot  = "intake_snapshot"
	schemaFollowUps = "intake_follow_ups"
)

func objectSchema(properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func stringSchema() map[string]any { return map[string]any{"type": "string"} }

func boolSchema() map[string]any { return map[string]any{"type": "boolean"} }

func enumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return map[string]any{"type": "string", "enum": arr}
}

func categoryNames() []string {
	out := make([]string, 0, len(intake.Categories))
	for _, c := range intake.Categories {
		out = append(out, string(c))
	}
	return out
}

// SnapshotSchema requires every category slot as a string.
func SnapshotSchema() map[string]any {
	names := categoryNames()
	props := make(map[string]any, len(names))
	for _, n := range names {
		props[n] = stringSchema()
	}
	return objectSchema(props, names)
}

func FollowUpsSchema() map[string]any {
	question := objectSchema(map[string]any{
		"question": stringSchema(),
		"category": enumSchema(categoryNames()...),
		"reason":   stringSchema(),
	}, []string{"question", "category", "reason"})

	return objectSchema(map[string]any{
		"questions": map[string]any{
			"type":     "array",
			"items":    question,
			"maxItems": MaxQuestions,
		},
		"is_complete": boolSchema(),
		"reasoning":   stringSchema(),
	}, []string{"questions", "is_complete", "reasoning"})
}
