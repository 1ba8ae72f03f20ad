package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound is returned when no ledger entry exists for a (quiz, student) pair.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicateSubmission is the business-rule violation for a second submit
	// attempt on the same (quiz, student) pair, whether caught by the pre-check
	// or by the storage uniqueness constraint.
	ErrDuplicateSubmission = errors.New("quiz already submitted")
	// ErrQuizClosed rejects a submission for a quiz that has expired. Missed
	// is terminal; a late submit must not overwrite it.
	ErrQuizClosed = errors.New("quiz closed")
	// ErrMissingField is returned when a required submission field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownStudent is returned when an identity cannot be resolved
	// against the roster. There is no fallback identity.
	ErrUnknownStudent = errors.New("student not found in roster")
)
