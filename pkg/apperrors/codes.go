package apperrors

// ErrorCode identifies an error kind independent of its HTTP mapping
type ErrorCode string

const (
	// System
	CodeProcessingError      ErrorCode = "PROCESSING_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Business rules
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeAmountMismatch   ErrorCode = "AMOUNT_MISMATCH"

	// Identity
	CodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	CodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	CodeForbidden              ErrorCode = "FORBIDDEN"
	CodeInvalidToken           ErrorCode = "INVALID_TOKEN"

	// Payment gateway
	CodeGatewayAPIError    ErrorCode = "GATEWAY_API_ERROR"
	CodeGatewayRefundError ErrorCode = "GATEWAY_REFUND_ERROR"
	CodeGatewayPayoutError ErrorCode = "GATEWAY_PAYOUT_ERROR"
)
