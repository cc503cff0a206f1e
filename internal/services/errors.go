package services

import "errors"

var (
	// ErrMissingInput marks a request without message or user id. The
	// transport layer answers with a clarifying reply instead of an error
	// status.
	ErrMissingInput = errors.New("missing message or user id")

	// ErrExtractionEmpty marks a financial-looking message that produced
	// no usable draft.
	ErrExtractionEmpty = errors.New("no expense could be extracted")

	// ErrCollaboratorFailure marks an unreachable or misbehaving language
	// model.
	ErrCollaboratorFailure = errors.New("conversation collaborator failed")

	// ErrInsufficientData marks a report request over a period with no
	// committed expenses.
	ErrInsufficientData = errors.New("not enough data for report")
)
