package handlers

import (
	"errors"
	"strconv"

	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/internal/validator"
	"contentpay_backend/pkg/apperrors"
	"contentpay_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BaseHandler carries what every handler needs: request binding, the
// request-scoped db and error responses.
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{validator: v}
}

// DB returns the connection DBMiddleware stored, bound to the request context.
// A missing connection is a wiring bug and panics into gin.Recovery.
func (h *BaseHandler) DB(c *gin.Context) *gorm.DB {
	db, ok := c.MustGet(string(contextkeys.DBContextKey)).(*gorm.DB)
	if !ok {
		panic("handlers: request context holds no *gorm.DB")
	}
	return db.WithContext(c.Request.Context())
}

func (h *BaseHandler) BindJSON(c *gin.Context, obj interface{}) bool {
	return h.bind(c, obj, c.ShouldBindJSON(obj), "request body")
}

func (h *BaseHandler) BindQuery(c *gin.Context, obj interface{}) bool {
	return h.bind(c, obj, c.ShouldBindQuery(obj), "query parameters")
}

// bind reports a binding failure or runs the validator. It writes the error
// response and returns false when the request must stop.
func (h *BaseHandler) bind(c *gin.Context, obj interface{}, bindErr error, what string) bool {
	ctx := c.Request.Context()
	if bindErr != nil {
		logger.CtxWarn(ctx, "malformed "+what, "error", bindErr.Error(), "path", c.FullPath())
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid "+what+": "+bindErr.Error()))
		return false
	}

	err := h.validator.Validate(obj)
	if err == nil {
		return true
	}
	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		logger.CtxWarn(ctx, "request rejected by validation", "errors", vErr.Errors, "path", c.FullPath())
		apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		return false
	}
	h.Fail(c, err)
	return false
}

// Fail writes err as the response. Anything that is not an AppError is
// reported as a processing error.
func (h *BaseHandler) Fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		logger.CtxWithError(ctx, "unhandled error", err, "path", c.FullPath())
		appErr = apperrors.ProcessingError(err)
	} else {
		logger.CtxWarn(ctx, "request failed", "code", appErr.Code, "message", appErr.Message, "path", c.FullPath())
	}
	apperrors.HandleError(c, appErr)
}

// Identity is whoever IdentityMiddleware resolved; zero for anonymous callers.
func (h *BaseHandler) Identity(c *gin.Context) payment.Identity {
	return payment.Identity{
		MemberID: c.GetString(contextkeys.MemberIDKey),
		GuestID:  c.GetString(contextkeys.GuestIDKey),
	}
}

// MemberID writes a 401 and returns false unless the caller is a member.
func (h *BaseHandler) MemberID(c *gin.Context) (string, bool) {
	memberID := c.GetString(contextkeys.MemberIDKey)
	if memberID == "" {
		apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
		return "", false
	}
	return memberID, true
}

// ParsePagination reads page and page_size, falling back to the first page of
// defaultPageSize and capping the size at maxPageSize.
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page = positiveQuery(c, "page", 1)
	pageSize = min(positiveQuery(c, "page_size", defaultPageSize), maxPageSize)
	return page, pageSize
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
