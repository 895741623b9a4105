package payment

import (
	"errors"

	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"
)

// toServiceError maps repository failures onto AppErrors. AppErrors pass
// through unchanged.
func toServiceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrOrderNotFound):
		return apperrors.ErrOrderNotFound.WithError(err)
	case errors.Is(err, repositories.ErrPaymentRecordNotFound):
		return apperrors.ErrPaymentNotFound.WithError(err)
	case errors.Is(err, repositories.ErrPurchaseNotFound):
		return apperrors.ErrPurchaseNotFound.WithError(err)
	case errors.Is(err, repositories.ErrVersionConflict):
		return apperrors.ErrConcurrentModification.WithError(err)
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.ErrConflict(err, "payment", "Payment was already recorded")
	default:
		return apperrors.ProcessingError(err)
	}
}
