package prompts

// Input is a superset of all fields any intake prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Categorize
	FreeTextJSON string
	// Shared
	SnapshotJSON  string
	CategoriesCSV string
	// Follow-ups
	Round                 int
	MaxRounds             int
	MinQuestions          int
	MaxQuestions          int
	PreviousQuestionsJSON string
	// Merge
	AnswersJSON string
}
