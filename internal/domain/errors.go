package domain

import "errors"

// Common domain errors
var (
	// Tool errors
	ErrToolNotFound        = errors.New("tool not found")
	ErrToolExecutionFailed = errors.New("tool execution failed")
	ErrInvalidToolInput    = errors.New("invalid tool input")

	// Planning errors
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrPlanParseFailed   = errors.New("failed to parse plan")
	ErrEmptyPlanSequence = errors.New("plan has no tool sequence")

	// LLM errors
	ErrLLMUnavailable       = errors.New("LLM service unavailable")
	ErrLLMRequestFailed     = errors.New("LLM request failed")
	ErrLLMEmptyResponse     = errors.New("LLM returned no content")
	ErrUnknownResponseShape = errors.New("unknown LLM response shape")

	// Trace errors
	ErrTraceNotFound   = errors.New("trace not found")
	ErrTraceDirInvalid = errors.New("trace directory is not usable")

	// Prompt registry errors
	ErrVariantNotFound = errors.New("prompt variant not found")
	ErrNoActiveABTest  = errors.New("no active A/B test")

	// Optimizer errors
	ErrNoTraces         = errors.New("no traces available for evaluation")
	ErrEmptyPopulation  = errors.New("optimizer population is empty")
	ErrUnknownComponent = errors.New("unknown component")

	// Validation errors
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// DomainError wraps a domain error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(err error, message string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
	}
}

func NewDomainErrorWithCode(err error, message, code string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
