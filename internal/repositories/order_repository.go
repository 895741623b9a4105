package repositories

import (
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(db *gorm.DB, order *models.Order) error
	FindByID(db *gorm.DB, id string) (*models.Order, error)
	FindByMerchantUid(db *gorm.DB, merchantUid string) (*models.Order, error)
	// UpdateStatus persists the lifecycle fields of order if its version is
	// still current, then bumps order.Version.
	UpdateStatus(db *gorm.DB, order *models.Order) error
	FindStalePending(db *gorm.DB, createdBefore time.Time, limit int) ([]models.Order, error)
	FindByMember(db *gorm.DB, memberID string, limit int) ([]models.Order, error)
}

type OrderRepositoryImpl struct{}

func NewOrderRepository() OrderRepository {
	return &OrderRepositoryImpl{}
}

func (r *OrderRepositoryImpl) Create(db *gorm.DB, order *models.Order) error {
	if err := db.Create(order).Error; err != nil {
		return fmt.Errorf("orderRepo.Create: %w", translate(err, nil))
	}
	return nil
}

func (r *OrderRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	if err := db.First(&order, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("orderRepo.FindByID: %w", translate(err, ErrOrderNotFound))
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) FindByMerchantUid(db *gorm.DB, merchantUid string) (*models.Order, error) {
	var order models.Order
	if err := db.Where("merchant_uid = ?", merchantUid).First(&order).Error; err != nil {
		return nil, fmt.Errorf("orderRepo.FindByMerchantUid: %w", translate(err, ErrOrderNotFound))
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) UpdateStatus(db *gorm.DB, order *models.Order) error {
	result := db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":              order.Status,
			"paid_at":             order.PaidAt,
			"cancel_requested_at": order.CancelRequestedAt,
			"cancel_reason":       order.CancelReason,
			"cancelled_at":        order.CancelledAt,
			"failed_at":           order.FailedAt,
			"failure_reason":      order.FailureReason,
			"version":             gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("orderRepo.UpdateStatus: %w", translate(result.Error, nil))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("orderRepo.UpdateStatus %s: %w", order.MerchantUid, ErrVersionConflict)
	}
	order.Version++
	return nil
}

func (r *OrderRepositoryImpl) FindStalePending(db *gorm.DB, createdBefore time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := db.Where("status = ? AND created_at < ?", models.OrderStatusPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("orderRepo.FindStalePending: %w", err)
	}
	return orders, nil
}

func (r *OrderRepositoryImpl) FindByMember(db *gorm.DB, memberID string, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := db.Where("member_id = ?", memberID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("orderRepo.FindByMember: %w", err)
	}
	return orders, nil
}
