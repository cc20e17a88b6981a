package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeFromError(t *testing.T) {
	rejected := fmt.Errorf("failed to submit trade: %w", &APIError{Status: 400, Message: "Insufficient cash"})
	out := OutcomeFromError(rejected, KindExecution, "Trade failed.")
	assert.False(t, out.Success)
	assert.Equal(t, KindExecution, out.Kind)
	assert.Equal(t, "Insufficient cash", out.Message)

	silent := &APIError{Status: 502}
	out = OutcomeFromError(silent, KindExecution, "Trade failed.")
	assert.Equal(t, KindExecution, out.Kind)
	assert.Equal(t, "Trade failed.", out.Message)

	out = OutcomeFromError(context.DeadlineExceeded, KindExecution, "Trade failed.")
	assert.Equal(t, KindTransport, out.Kind)
	assert.Equal(t, "Trade failed.", out.Message)

	out = OutcomeFromError(errors.New("connection refused"), KindQuote, "Failed to calculate option fair value.")
	assert.Equal(t, KindTransport, out.Kind)
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "collaborator returned status 404", (&APIError{Status: 404}).Error())
	assert.Equal(t, "collaborator returned status 400: bad", (&APIError{Status: 400, Message: "bad"}).Error())
}

func TestErrorKindHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, KindNone.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, KindQuote.HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, KindExecution.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, KindTransport.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, KindStaleRead.HTTPStatus())
}
