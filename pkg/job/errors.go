package job

import "errors"

var (
	// ErrInvalidState is returned when an operation does not apply to the
	// job's current state (running twice, asking before running, ...).
	ErrInvalidState = errors.New("invalid job state")

	// ErrNoQuestion is returned by Answer when the job is not waiting for an
	// answer, or when the pending question was already answered.
	ErrNoQuestion = errors.New("job is not waiting for an answer")

	// ErrQuestionTimeout is returned by Ask when no answer arrived in time.
	ErrQuestionTimeout = errors.New("question timed out")
)
