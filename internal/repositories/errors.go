package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrPaymentRecordNotFound = errors.New("payment record not found")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrBillingKeyNotFound    = errors.New("billing key not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrSettlementNotFound    = errors.New("settlement not found")
	ErrNotificationNotFound  = errors.New("notification not found")

	// ErrVersionConflict means the row changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate record")
)

const pgUniqueViolation = "23505"

// IsDuplicate reports a unique constraint violation from any supported driver.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translate maps driver level errors onto repository sentinels.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case IsDuplicate(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
