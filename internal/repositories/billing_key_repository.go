package repositories

import (
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"gorm.io/gorm"
)

type BillingKeyRepository interface {
	Create(db *gorm.DB, key *models.BillingKey) error
	FindByID(db *gorm.DB, id string) (*models.BillingKey, error)
	FindActiveByMember(db *gorm.DB, memberID string) (*models.BillingKey, error)
	// DeactivateOthers marks every ACTIVE key of the member except keepID inactive.
	DeactivateOthers(db *gorm.DB, memberID, keepID string, at time.Time) error
	UpdateStatus(db *gorm.DB, id string, status models.BillingKeyStatus, at time.Time) error
}

type BillingKeyRepositoryImpl struct{}

func NewBillingKeyRepository() BillingKeyRepository {
	return &BillingKeyRepositoryImpl{}
}

func (r *BillingKeyRepositoryImpl) Create(db *gorm.DB, key *models.BillingKey) error {
	if err := db.Create(key).Error; err != nil {
		return fmt.Errorf("billingKeyRepo.Create: %w", translate(err, nil))
	}
	return nil
}

func (r *BillingKeyRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.BillingKey, error) {
	var key models.BillingKey
	if err := db.First(&key, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("billingKeyRepo.FindByID: %w", translate(err, ErrBillingKeyNotFound))
	}
	return &key, nil
}

func (r *BillingKeyRepositoryImpl) FindActiveByMember(db *gorm.DB, memberID string) (*models.BillingKey, error) {
	var key models.BillingKey
	err := db.Where("member_id = ? AND status = ?", memberID, models.BillingKeyStatusActive).
		Order("issued_at DESC").
		First(&key).Error
	if err != nil {
		return nil, fmt.Errorf("billingKeyRepo.FindActiveByMember: %w", translate(err, ErrBillingKeyNotFound))
	}
	return &key, nil
}

func (r *BillingKeyRepositoryImpl) DeactivateOthers(db *gorm.DB, memberID, keepID string, at time.Time) error {
	err := db.Model(&models.BillingKey{}).
		Where("member_id = ? AND status = ? AND id <> ?", memberID, models.BillingKeyStatusActive, keepID).
		Updates(map[string]interface{}{
			"status":         models.BillingKeyStatusInactive,
			"deactivated_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("billingKeyRepo.DeactivateOthers: %w", err)
	}
	return nil
}

func (r *BillingKeyRepositoryImpl) UpdateStatus(db *gorm.DB, id string, status models.BillingKeyStatus, at time.Time) error {
	updates := map[string]interface{}{"status": status}
	if status != models.BillingKeyStatusActive {
		updates["deactivated_at"] = at
	}
	result := db.Model(&models.BillingKey{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("billingKeyRepo.UpdateStatus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("billingKeyRepo.UpdateStatus %s: %w", id, ErrBillingKeyNotFound)
	}
	return nil
}
