package handlers

import (
	"net/http"

	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/logger"
	"contentpay_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues guest session tokens. Member tokens come from the
// account service that shares the signing secret.
type AuthHandler struct {
	*BaseHandler
	tokens *auth.Manager
}

func NewAuthHandler(base *BaseHandler, tokens *auth.Manager) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		tokens:      tokens,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/guest", h.GuestSession)
}

func (h *AuthHandler) GuestSession(c *gin.Context) {
	token, guestID, err := h.tokens.GenerateGuestToken()
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "failed to issue guest token", err)
		apperrors.HandleError(c, apperrors.ProcessingError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"guest_id":    guestID,
		"guest_token": token,
	})
}
