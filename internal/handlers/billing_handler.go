package handlers

import (
	"net/http"

	"contentpay_backend/internal/middleware"
	"contentpay_backend/internal/services/billing"

	"github.com/gin-gonic/gin"
)

// BillingHandler serves billing keys and recurring subscriptions. Members only.
type BillingHandler struct {
	*BaseHandler
	keyService          billing.BillingKeyService
	subscriptionService billing.SubscriptionService
}

func NewBillingHandler(base *BaseHandler, keyService billing.BillingKeyService, subscriptionService billing.SubscriptionService) *BillingHandler {
	return &BillingHandler{
		BaseHandler:         base,
		keyService:          keyService,
		subscriptionService: subscriptionService,
	}
}

func (h *BillingHandler) RegisterRoutes(r *gin.RouterGroup) {
	keys := r.Group("/billing-keys")
	keys.Use(middleware.RequireMember())
	{
		keys.POST("", h.RegisterKey)
		keys.GET("/active", h.ActiveKey)
		keys.DELETE("/:id", h.DeleteKey)
	}

	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(middleware.RequireMember())
	{
		subscriptions.POST("", h.Subscribe)
		subscriptions.DELETE("/:id", h.CancelSubscription)
	}
}

func (h *BillingHandler) RegisterKey(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}
	var req billing.RegisterBillingKeyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	key, err := h.keyService.Register(c.Request.Context(), h.DB(c), memberID, req)
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, key)
}

func (h *BillingHandler) ActiveKey(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}

	key, err := h.keyService.Active(h.DB(c), memberID)
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, key)
}

func (h *BillingHandler) DeleteKey(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}

	if err := h.keyService.Delete(c.Request.Context(), h.DB(c), memberID, c.Param("id")); err != nil {
		h.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BillingHandler) Subscribe(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}
	var req billing.SubscribeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.subscriptionService.Subscribe(c.Request.Context(), h.DB(c), memberID, req)
	if err != nil {
		h.Fail(c, err)
		return
	}

	status := http.StatusCreated
	if result.Completion == nil {
		// billing key registered, nothing charged yet
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"billing_key":  result.BillingKey,
		"subscription": result.Subscription,
		"order":        result.Order,
		"payment":      newCompletionResponse(result.Completion),
	})
}

func (h *BillingHandler) CancelSubscription(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}

	subscription, err := h.subscriptionService.CancelSubscription(c.Request.Context(), h.DB(c), memberID, c.Param("id"))
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}
