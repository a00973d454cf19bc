package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a request races an in-flight operation on the same entity.
	ErrConflict = errors.New("conflict")
	// ErrCorruptState marks persisted state that failed structural validation on load.
	ErrCorruptState = errors.New("corrupt persisted state")
	// ErrCaseComplete is returned for writes against an intake case that already completed.
	ErrCaseComplete = errors.New("case already complete")
	// ErrGateway wraps transport and parse failures from the LLM gateway.
	ErrGateway = errors.New("llm gateway failure")
)
