// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(string, map[string]interface{}) {}

func jobWithRetries(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "score-hospital-application", Retries: retries}}
}

func TestHasCode_FindsWrappedStandardError(t *testing.T) {
	err := fmt.Errorf("scoring failed: %w", NewApplicationNotFoundError("app-1"))

	assert.True(t, HasCode(err, ErrCodeApplicationNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, HasCode(err, ErrCodeConflict))
}

func TestIsNotFound_Family(t *testing.T) {
	assert.True(t, IsNotFound(NewHospitalNotFoundError("app-1")))
	assert.True(t, IsNotFound(NewCriteriaNotFoundError()))
	assert.False(t, IsNotFound(NewInvalidInputError("bad status")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewQueryExecutionFailedError("lock application", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StandardError
		code     string
		retries  int
		category string
	}{
		{"not found", NewApplicationNotFoundError("a"), "APPLICATION_NOT_FOUND", 0, "NOT_FOUND"},
		{"conflict", NewConflictError("completed"), "TRANSITION_CONFLICT", 0, "STATE_MACHINE"},
		{"degenerate", NewDegenerateScoreError("no criteria"), "DEGENERATE_SCORE", 0, "SCORING"},
		{"database", NewTransactionFailedError(stderrors.New("x")), "DATABASE_ERROR", 3, "DATABASE"},
		{"notification", NewNotificationSendFailedError("email", stderrors.New("x")), "NOTIFICATION_SEND_FAILED", 3, "NOTIFICATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.code, bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
			assert.Equal(t, tt.category, GetErrorCategory(tt.err.Code))
		})
	}
}

func TestToErrorVariables_IncludesMetadata(t *testing.T) {
	err := NewConflictError("completed is terminal").WithMetadata("applicationId", "app-9")
	vars := ConvertToBPMNError(err).ToErrorVariables()

	assert.Equal(t, "TRANSITION_CONFLICT", vars["errorCode"])
	assert.Equal(t, "app-9", vars["applicationId"])
	assert.Equal(t, false, vars["retryable"])
}

func TestDecide(t *testing.T) {
	h := NewErrorHandler(nopLogger{})

	t.Run("business error is thrown", func(t *testing.T) {
		out := h.Decide(jobWithRetries(3), NewInvalidInputError("status"))
		require.NotNil(t, out.BPMNError)
		assert.True(t, out.Thrown)
		assert.Equal(t, "INVALID_INPUT", out.BPMNError.Code)
	})

	t.Run("technical error is retried", func(t *testing.T) {
		out := h.Decide(jobWithRetries(3), NewTransactionFailedError(stderrors.New("deadlock")))
		assert.False(t, out.Thrown)
		assert.Equal(t, int32(2), out.Retries)
	})

	t.Run("last retry is thrown", func(t *testing.T) {
		out := h.Decide(jobWithRetries(1), NewTransactionFailedError(stderrors.New("deadlock")))
		assert.True(t, out.Thrown)
	})

	t.Run("unknown error normalizes to internal", func(t *testing.T) {
		out := h.Decide(jobWithRetries(3), stderrors.New("boom"))
		assert.True(t, out.Thrown)
		assert.Equal(t, string(ErrCodeInternal), out.BPMNError.Code)
	})
}
