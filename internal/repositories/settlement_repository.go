package repositories

import (
	"errors"
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"gorm.io/gorm"
)

type SettlementRepository interface {
	Create(db *gorm.DB, settlement *models.Settlement) error
	FindByID(db *gorm.DB, id string) (*models.Settlement, error)
	// FindBySellerAndPeriod returns the period's settlement with the highest sequence.
	FindBySellerAndPeriod(db *gorm.DB, sellerID string, start, end time.Time) (*models.Settlement, error)
	// UpdateWithVersion saves every mutable column if the version is current.
	UpdateWithVersion(db *gorm.DB, settlement *models.Settlement) error
	List(db *gorm.DB, filter SettlementFilter) ([]models.Settlement, int64, error)

	CreateItem(db *gorm.DB, item *models.SettlementItem) error
	ItemExists(db *gorm.DB, purchaseID string) (bool, error)
	FindItems(db *gorm.DB, settlementID string) ([]models.SettlementItem, error)
}

type SettlementFilter struct {
	SellerID string
	Status   models.SettlementStatus
	Page     int
	PageSize int
}

type SettlementRepositoryImpl struct{}

func NewSettlementRepository() SettlementRepository {
	return &SettlementRepositoryImpl{}
}

func (r *SettlementRepositoryImpl) Create(db *gorm.DB, settlement *models.Settlement) error {
	if err := db.Omit("Items").Create(settlement).Error; err != nil {
		return fmt.Errorf("settlementRepo.Create: %w", translate(err, nil))
	}
	return nil
}

func (r *SettlementRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Settlement, error) {
	var settlement models.Settlement
	if err := db.First(&settlement, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("settlementRepo.FindByID: %w", translate(err, ErrSettlementNotFound))
	}
	return &settlement, nil
}

func (r *SettlementRepositoryImpl) FindBySellerAndPeriod(db *gorm.DB, sellerID string, start, end time.Time) (*models.Settlement, error) {
	var settlement models.Settlement
	err := db.Where("seller_id = ? AND period_start = ? AND period_end = ?", sellerID, start, end).
		Order("sequence DESC").
		First(&settlement).Error
	if err != nil {
		return nil, fmt.Errorf("settlementRepo.FindBySellerAndPeriod: %w", translate(err, ErrSettlementNotFound))
	}
	return &settlement, nil
}

func (r *SettlementRepositoryImpl) UpdateWithVersion(db *gorm.DB, settlement *models.Settlement) error {
	result := db.Model(&models.Settlement{}).
		Where("id = ? AND version = ?", settlement.ID, settlement.Version).
		Updates(map[string]interface{}{
			"scheduled_payout_date": settlement.ScheduledPayoutDate,
			"total_amount":          settlement.TotalAmount,
			"pg_fee":                settlement.PgFee,
			"platform_fee":          settlement.PlatformFee,
			"payout_amount":         settlement.PayoutAmount,
			"item_count":            settlement.ItemCount,
			"status":                settlement.Status,
			"payout_transaction_id": settlement.PayoutTransactionID,
			"hold_reason":           settlement.HoldReason,
			"approved_by":           settlement.ApprovedBy,
			"completed_at":          settlement.CompletedAt,
			"version":               gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("settlementRepo.UpdateWithVersion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("settlementRepo.UpdateWithVersion %s: %w", settlement.ID, ErrVersionConflict)
	}
	settlement.Version++
	return nil
}

func (r *SettlementRepositoryImpl) List(db *gorm.DB, filter SettlementFilter) ([]models.Settlement, int64, error) {
	query := db.Model(&models.Settlement{})
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("settlementRepo.List: count: %w", err)
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var settlements []models.Settlement
	err := query.Order("period_start DESC, seller_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&settlements).Error
	if err != nil {
		return nil, 0, fmt.Errorf("settlementRepo.List: %w", err)
	}
	return settlements, total, nil
}

func (r *SettlementRepositoryImpl) CreateItem(db *gorm.DB, item *models.SettlementItem) error {
	if err := db.Create(item).Error; err != nil {
		return fmt.Errorf("settlementRepo.CreateItem: %w", translate(err, nil))
	}
	return nil
}

func (r *SettlementRepositoryImpl) ItemExists(db *gorm.DB, purchaseID string) (bool, error) {
	var item models.SettlementItem
	err := db.Select("id").Where("purchase_id = ?", purchaseID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settlementRepo.ItemExists: %w", err)
	}
	return true, nil
}

func (r *SettlementRepositoryImpl) FindItems(db *gorm.DB, settlementID string) ([]models.SettlementItem, error) {
	var items []models.SettlementItem
	if err := db.Where("settlement_id = ?", settlementID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("settlementRepo.FindItems: %w", err)
	}
	return items, nil
}
