package prompts

type PromptName string

const (
	PromptCategorize   PromptName = "intake.categorize"
	PromptFollowUps    PromptName = "intake.follow_ups"
	PromptMergeAnswers PromptName = "intake.merge_answers"
)

// RequiredNames must resolve in every Store the gateway is given.
var RequiredNames = []PromptName{
	PromptCategorize,
	PromptFollowUps,
	PromptMergeAnswers,
}
