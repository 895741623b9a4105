package handlers

import (
	"net/http"
	"time"

	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/middleware"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/internal/services/settlement"
	"contentpay_backend/pkg/apperrors"
	"contentpay_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	*BaseHandler
	engine settlement.Engine
	now    func() time.Time
}

func NewSettlementHandler(base *BaseHandler, engine settlement.Engine) *SettlementHandler {
	return &SettlementHandler{
		BaseHandler: base,
		engine:      engine,
		now:         time.Now,
	}
}

func (h *SettlementHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin/settlements")
	admin.Use(middleware.RequireRoles(auth.RoleAdmin))
	{
		admin.POST("/aggregate", h.Aggregate)
		admin.GET("", h.List)
		admin.GET("/:id", h.Get)
		admin.POST("/:id/approve", h.Approve)
		admin.POST("/:id/cancel", h.Cancel)
	}
}

type aggregateRequest struct {
	// Month defaults to the previous calendar month.
	Month    string `json:"month" validate:"omitempty,is-month"`
	SellerID string `json:"seller_id" validate:"omitempty,max=36"`
}

type listSettlementsQuery struct {
	SellerID string `form:"seller_id" json:"seller_id"`
	Status   string `form:"status" json:"status" validate:"omitempty,is-settlement-status"`
}

type settlementCancelRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

func (h *SettlementHandler) Aggregate(c *gin.Context) {
	var req aggregateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	period := settlement.PreviousMonth(h.now())
	if req.Month != "" {
		parsed, err := settlement.ParseMonth(req.Month)
		if err != nil {
			apperrors.HandleError(c, apperrors.ValidationError(map[string]string{"month": err.Error()}))
			return
		}
		period = parsed
	}

	ctx := c.Request.Context()
	if req.SellerID != "" {
		result, err := h.engine.Aggregate(ctx, h.DB(c), req.SellerID, period)
		if err != nil {
			h.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"period": period.String(), "settlement": result})
		return
	}

	report, err := h.engine.AggregatePeriod(ctx, h.DB(c), period)
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":      report.Period.String(),
		"sellers":     report.Sellers,
		"settlements": report.Settlements,
		"items":       report.Items,
		"failed":      report.Failed,
	})
}

func (h *SettlementHandler) List(c *gin.Context) {
	var query listSettlementsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	settlements, total, err := h.engine.List(h.DB(c), repositories.SettlementFilter{
		SellerID: query.SellerID,
		Status:   models.SettlementStatus(query.Status),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settlements": settlements,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
	})
}

func (h *SettlementHandler) Get(c *gin.Context) {
	result, err := h.engine.Get(h.DB(c), c.Param("id"))
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SettlementHandler) Approve(c *gin.Context) {
	adminID := c.GetString(contextkeys.MemberIDKey)

	result, err := h.engine.Approve(c.Request.Context(), h.DB(c), c.Param("id"), adminID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SettlementHandler) Cancel(c *gin.Context) {
	var req settlementCancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.engine.Cancel(c.Request.Context(), h.DB(c), c.Param("id"), req.Reason)
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
