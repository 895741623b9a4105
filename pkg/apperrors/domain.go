package apperrors

import (
	"fmt"
	"net/http"
)

// =========================================================================
// Factories
// =========================================================================

// ErrNotFound wraps a repository "record not found" into a 404
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrConflict is used for optimistic version mismatches and duplicate writes
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidStatus rejects an operation the current status does not allow
func ErrInvalidStatus(domain string, current, required interface{}) *AppError {
	return New(
		CodeInvalidStatus,
		domain,
		fmt.Sprintf("Operation requires status %v, current status is %v", required, current),
		http.StatusBadRequest,
	).WithDetails(map[string]interface{}{"current": current, "required": required})
}

// ErrAmountMismatch is the hard failure raised when the order total and the charged total differ
func ErrAmountMismatch(expected, actual string) *AppError {
	return New(
		CodeAmountMismatch,
		"payment",
		"Payment amount does not match the order amount",
		http.StatusBadRequest,
	).WithDetails(map[string]string{"expected": expected, "actual": actual})
}

// ErrUnauthorized signals the requester does not own the resource
func ErrUnauthorized(domain, message string) *AppError {
	return New(CodeUnauthorized, domain, message, http.StatusForbidden)
}

// ErrGatewayAPI covers transport failures and declined approvals
func ErrGatewayAPI(err error, gatewayCode, message string) *AppError {
	return Wrap(err, CodeGatewayAPIError, "gateway", message, http.StatusBadGateway).
		WithDetails(map[string]string{"gateway_code": gatewayCode})
}

// ErrGatewayRefund covers declined or failed refunds
func ErrGatewayRefund(err error, gatewayCode, message string) *AppError {
	return Wrap(err, CodeGatewayRefundError, "gateway", message, http.StatusBadGateway).
		WithDetails(map[string]string{"gateway_code": gatewayCode})
}

// ErrGatewayPayout covers declined or failed settlement payouts
func ErrGatewayPayout(err error, gatewayCode, message string) *AppError {
	return Wrap(err, CodeGatewayPayoutError, "gateway", message, http.StatusBadGateway).
		WithDetails(map[string]string{"gateway_code": gatewayCode})
}

// =========================================================================
// Sentinels
// =========================================================================

// ErrAuthenticationRequired - neither a member nor a guest identity was resolved
var ErrAuthenticationRequired = New(
	CodeAuthenticationRequired,
	"auth",
	"Authentication required",
	http.StatusUnauthorized,
)

// ErrOrderNotFound - no order for the given merchant uid
var ErrOrderNotFound = New(
	CodeNotFound,
	"order",
	"Order not found",
	http.StatusNotFound,
)

// ErrPaymentNotFound - no payment record for the order
var ErrPaymentNotFound = New(
	CodeNotFound,
	"payment",
	"Payment not found",
	http.StatusNotFound,
)

// ErrPurchaseNotFound - no purchase for the order
var ErrPurchaseNotFound = New(
	CodeNotFound,
	"purchase",
	"Purchase not found",
	http.StatusNotFound,
)

// ErrSettlementNotFound - no settlement with the given id
var ErrSettlementNotFound = New(
	CodeNotFound,
	"settlement",
	"Settlement not found",
	http.StatusNotFound,
)

// ErrBillingKeyNotFound - member has no usable billing key
var ErrBillingKeyNotFound = New(
	CodeNotFound,
	"billing",
	"Active billing key not found",
	http.StatusNotFound,
)

// ErrSubscriptionNotFound - no subscription with the given id
var ErrSubscriptionNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription not found",
	http.StatusNotFound,
)

// ErrConcurrentModification - the row changed between read and write
var ErrConcurrentModification = New(
	CodeConflict,
	"order",
	"Order was modified concurrently",
	http.StatusConflict,
)

// ErrAlreadyPurchased - the order already has a purchase record
var ErrAlreadyPurchased = New(
	CodeAlreadyExists,
	"purchase",
	"Order has already been purchased",
	http.StatusConflict,
)

// ErrInvalidSignature - webhook signature did not verify
var ErrInvalidSignature = New(
	CodeForbidden,
	"gateway",
	"Invalid webhook signature",
	http.StatusForbidden,
)
