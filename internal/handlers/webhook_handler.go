package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/services/payment"
	"contentpay_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// WebhookHandler accepts gateway status notifications. The notification only
// names the order; its state is always re-read from the gateway.
type WebhookHandler struct {
	*BaseHandler
	signer     *gateway.Signer
	reconciler *payment.Reconciler
}

func NewWebhookHandler(base *BaseHandler, signer *gateway.Signer, reconciler *payment.Reconciler) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: base,
		signer:      signer,
		reconciler:  reconciler,
	}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.Receive)
}

type webhookPayload struct {
	MerchantUid string `json:"merchant_uid" validate:"required,is-merchant-uid"`
	Status      string `json:"status"`
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("unreadable body"))
		return
	}
	if !h.signer.Verify(body, c.GetHeader(gateway.SignatureHeader)) {
		logger.CtxWarn(ctx, "webhook signature rejected", "ip", c.ClientIP())
		apperrors.HandleError(c, apperrors.ErrInvalidSignature)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return
	}
	if !h.bind(c, &payload, nil, "request body") {
		return
	}

	ctx = logger.WithMerchantUid(ctx, payload.MerchantUid)
	outcome, err := h.reconciler.ReconcileOrder(ctx, h.DB(c), payload.MerchantUid, false)
	if err != nil {
		h.Fail(c, err)
		return
	}
	logger.CtxInfo(ctx, "webhook processed", "reported_status", payload.Status, "outcome", outcome)

	c.JSON(http.StatusOK, gin.H{"merchant_uid": payload.MerchantUid, "outcome": outcome})
}
