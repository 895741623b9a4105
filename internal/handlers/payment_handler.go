package handlers

import (
	"net/http"

	"contentpay_backend/internal/services/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	*BaseHandler
	orderService payment.OrderService
	executor     *payment.CommandExecutor
}

func NewPaymentHandler(base *BaseHandler, orderService payment.OrderService, executor *payment.CommandExecutor) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:  base,
		orderService: orderService,
		executor:     executor,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:merchantUid", h.GetOrder)
	}

	payments := r.Group("/payments")
	{
		payments.POST("/confirm", h.Confirm)
		payments.POST("/:merchantUid/cancel-request", h.RequestCancel)
		payments.POST("/:merchantUid/cancel", h.Cancel)
	}
}

type confirmRequest struct {
	MerchantUid string          `json:"merchant_uid" validate:"required,is-merchant-uid"`
	PaymentKey  string          `json:"payment_key" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	TaxFree     *bool           `json:"tax_free"`
	Installment *int            `json:"installment" validate:"omitempty,min=0,max=36"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req payment.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(h.DB(c), h.Identity(c), &req)
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *PaymentHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(h.DB(c), h.Identity(c), c.Param("merchantUid"))
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if !h.BindJSON(c, &req) {
		return
	}

	completion, err := h.executor.Approve(c.Request.Context(), h.DB(c), payment.ApproveCommand{
		Identity:    h.Identity(c),
		MerchantUid: req.MerchantUid,
		PaymentKey:  req.PaymentKey,
		Amount:      req.Amount,
		TaxFree:     req.TaxFree,
		Installment: req.Installment,
	})
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newCompletionResponse(completion))
}

func (h *PaymentHandler) RequestCancel(c *gin.Context) {
	var req cancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	merchantUid := c.Param("merchantUid")

	order, err := h.executor.RequestCancel(c.Request.Context(), h.DB(c), payment.CancelRequestCommand{
		Identity:    h.Identity(c),
		MerchantUid: merchantUid,
		Reason:      req.Reason,
	})
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	merchantUid := c.Param("merchantUid")

	cancellation, err := h.executor.Cancel(c.Request.Context(), h.DB(c), payment.CancelCommand{
		Identity:    h.Identity(c),
		MerchantUid: merchantUid,
		Reason:      req.Reason,
	})
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, newCancellationResponse(cancellation))
}
