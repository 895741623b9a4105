package handlers

import (
	"net/http"

	"contentpay_backend/internal/middleware"
	"contentpay_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.RequireMember())
	{
		notifications.GET("", h.List)
		notifications.POST("/read-all", h.MarkAllAsRead)
		notifications.POST("/:id/read", h.MarkAsRead)
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.GetUserNotifications(h.DB(c), memberID, positiveQuery(c, "limit", 0))
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(h.DB(c), memberID, c.Param("id")); err != nil {
		h.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	memberID, ok := h.MemberID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.MarkAllAsRead(h.DB(c), memberID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}
