package domain

import (
	"errors"
	"fmt"
)

// APIError is returned by collaborator clients when a call completed but was
// rejected, either by a non-success status or by an "error" field in the body.
type APIError struct {
	Status  int
	Message string // Empty when the collaborator gave no reason
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("collaborator returned status %d", e.Status)
	}
	return fmt.Sprintf("collaborator returned status %d: %s", e.Status, e.Message)
}

// OutcomeFromError converts a collaborator error into a user-facing outcome.
// Rejections keep the collaborator's message under kind; anything else is a
// transport failure reported with the fallback text.
func OutcomeFromError(err error, kind ErrorKind, fallback string) Outcome {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return Failed(kind, apiErr.Message)
		}
		return Failed(kind, fallback)
	}
	return Failed(KindTransport, fallback)
}
