package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"contentpay_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesCopies(t *testing.T) {
	wrapped := fmt.Errorf("executor: %w", apperrors.ErrOrderNotFound.WithError(errors.New("record not found")))

	assert.True(t, errors.Is(wrapped, apperrors.ErrOrderNotFound))
	assert.False(t, errors.Is(wrapped, apperrors.ErrSettlementNotFound))
	assert.False(t, errors.Is(wrapped, apperrors.ErrAuthenticationRequired))
}

func TestAppError_WithDetailsDoesNotMutateSentinel(t *testing.T) {
	withDetails := apperrors.ErrConcurrentModification.WithDetails("order-1")

	assert.Nil(t, apperrors.ErrConcurrentModification.Details)
	assert.Equal(t, "order-1", withDetails.Details)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apperrors.ErrAmountMismatch("29900", "19900"))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeAmountMismatch))
	assert.False(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.False(t, apperrors.HasCode(errors.New("plain"), apperrors.CodeAmountMismatch))
}

func TestGatewayErrors(t *testing.T) {
	refundErr := apperrors.ErrGatewayRefund(nil, "E01", "refund declined")

	require.Equal(t, apperrors.CodeGatewayRefundError, refundErr.Code)
	assert.Equal(t, http.StatusBadGateway, refundErr.HTTPCode)
	assert.Equal(t, map[string]string{"gateway_code": "E01"}, refundErr.Details)
	assert.Equal(t, "[gateway:GATEWAY_REFUND_ERROR] refund declined", refundErr.Error())
}
