package repositories

import (
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(db *gorm.DB, purchase *models.Purchase) error
	FindByOrderID(db *gorm.DB, orderID string) (*models.Purchase, error)
	MarkCancelled(db *gorm.DB, orderID string, at time.Time, reason string) error
	ExistsCompleted(db *gorm.DB, memberID, contentID string) (bool, error)
	// FindUnsettled returns completed purchases of seller in [from, to) that
	// are not linked to any settlement item yet.
	FindUnsettled(db *gorm.DB, sellerID string, from, to time.Time) ([]models.Purchase, error)
	FindSellersWithUnsettled(db *gorm.DB, from, to time.Time) ([]string, error)
}

type PurchaseRepositoryImpl struct{}

func NewPurchaseRepository() PurchaseRepository {
	return &PurchaseRepositoryImpl{}
}

func (r *PurchaseRepositoryImpl) Create(db *gorm.DB, purchase *models.Purchase) error {
	if err := db.Create(purchase).Error; err != nil {
		return fmt.Errorf("purchaseRepo.Create: %w", translate(err, nil))
	}
	return nil
}

func (r *PurchaseRepositoryImpl) FindByOrderID(db *gorm.DB, orderID string) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := db.Where("order_id = ?", orderID).First(&purchase).Error; err != nil {
		return nil, fmt.Errorf("purchaseRepo.FindByOrderID: %w", translate(err, ErrPurchaseNotFound))
	}
	return &purchase, nil
}

func (r *PurchaseRepositoryImpl) MarkCancelled(db *gorm.DB, orderID string, at time.Time, reason string) error {
	result := db.Model(&models.Purchase{}).
		Where("order_id = ? AND status = ?", orderID, models.PurchaseStatusCompleted).
		Updates(map[string]interface{}{
			"status":        models.PurchaseStatusCancelled,
			"cancelled_at":  at,
			"refunded_at":   at,
			"cancel_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("purchaseRepo.MarkCancelled: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("purchaseRepo.MarkCancelled %s: %w", orderID, ErrPurchaseNotFound)
	}
	return nil
}

func (r *PurchaseRepositoryImpl) ExistsCompleted(db *gorm.DB, memberID, contentID string) (bool, error) {
	var count int64
	err := db.Model(&models.Purchase{}).
		Where("member_id = ? AND content_id = ? AND status = ?", memberID, contentID, models.PurchaseStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("purchaseRepo.ExistsCompleted: %w", err)
	}
	return count > 0, nil
}

func (r *PurchaseRepositoryImpl) unsettled(db *gorm.DB, from, to time.Time) *gorm.DB {
	return db.Model(&models.Purchase{}).
		Joins("LEFT JOIN settlement_items ON settlement_items.purchase_id = purchases.id").
		Where("settlement_items.id IS NULL").
		Where("purchases.status = ?", models.PurchaseStatusCompleted).
		Where("purchases.purchased_at >= ? AND purchases.purchased_at < ?", from, to)
}

func (r *PurchaseRepositoryImpl) FindUnsettled(db *gorm.DB, sellerID string, from, to time.Time) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.unsettled(db, from, to).
		Where("purchases.seller_id = ?", sellerID).
		Order("purchases.purchased_at ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("purchaseRepo.FindUnsettled: %w", err)
	}
	return purchases, nil
}

func (r *PurchaseRepositoryImpl) FindSellersWithUnsettled(db *gorm.DB, from, to time.Time) ([]string, error) {
	var sellers []string
	err := r.unsettled(db, from, to).
		Distinct("purchases.seller_id").
		Order("purchases.seller_id").
		Pluck("purchases.seller_id", &sellers).Error
	if err != nil {
		return nil, fmt.Errorf("purchaseRepo.FindSellersWithUnsettled: %w", err)
	}
	return sellers, nil
}
