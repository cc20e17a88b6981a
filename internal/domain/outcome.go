package domain

import "net/http"

// ErrorKind classifies why an action did not succeed
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation" // bad input, caught before any network call
	KindQuote      ErrorKind = "quote"      // pricing collaborator gave no usable fair value
	KindExecution  ErrorKind = "execution"  // ledger rejected the mutation
	KindTransport  ErrorKind = "transport"  // network failure or unparseable response
	KindStaleRead  ErrorKind = "stale_read" // a refresh failed and the previous cache is kept
)

// Outcome is what every user action resolves to. Business failures are
// outcomes, not Go errors.
type Outcome struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// Succeeded builds a successful outcome carrying a confirmation message
func Succeeded(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// Failed builds a failed outcome of the given kind
func Failed(kind ErrorKind, message string) Outcome {
	return Outcome{Kind: kind, Message: message}
}

// HTTPStatus is the status the local API answers a failure of this kind with
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindQuote, KindExecution:
		return http.StatusUnprocessableEntity
	case KindTransport:
		return http.StatusBadGateway
	case KindStaleRead:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
