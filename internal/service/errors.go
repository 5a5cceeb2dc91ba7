package service

import "errors"

var (
	// ErrForbidden means the identity has neither a tenant nor holding-level
	// access to the aggregate collection.
	ErrForbidden = errors.New("identity has no tenant access")

	// ErrGenerationUnavailable covers transport, auth, quota and timeout
	// failures of the language-model service.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrEmptyCompletion means the language model returned no text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrNoAnswerFound is the orchestration-level outcome when generation
	// produced nothing usable for the query.
	ErrNoAnswerFound = errors.New("no answer found")
)
