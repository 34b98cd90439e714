// Package apperrors defines the error taxonomy shared across the platform.
package apperrors

import (
	"fmt"
)

var (
	// ErrAuthenticationMissing indicates the request carried no valid identity.
	ErrAuthenticationMissing = fmt.Errorf("personachat: user not authenticated")

	// ErrNotFound indicates a thread, persona, or group could not be resolved.
	ErrNotFound = fmt.Errorf("personachat: not found")

	// ErrInvalidOrchestratorResponse indicates the decision call returned
	// something other than the strict {responder, reason} JSON object.
	ErrInvalidOrchestratorResponse = fmt.Errorf("personachat: invalid orchestrator response")

	// ErrUnknownResponder indicates the orchestrator named a persona that is
	// not a member of the thread's group.
	ErrUnknownResponder = fmt.Errorf("personachat: unknown responder")

	// ErrEmptyGeneration indicates a persona generation came back blank.
	ErrEmptyGeneration = fmt.Errorf("personachat: empty generation")

	// ErrGenerationFailure indicates a transport or provider error from the
	// language-model gateway.
	ErrGenerationFailure = fmt.Errorf("personachat: generation failure")

	// ErrPersistenceFailure indicates a store read or write failed.
	ErrPersistenceFailure = fmt.Errorf("personachat: persistence failure")
)
