package repositories

import (
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(db *gorm.DB, subscription *models.Subscription) error
	FindByID(db *gorm.DB, id string) (*models.Subscription, error)
	FindActiveByMemberAndContent(db *gorm.DB, memberID, contentID, optionID string) (*models.Subscription, error)
	// Update fails with ErrVersionConflict when the row changed since it was read.
	Update(db *gorm.DB, subscription *models.Subscription) error
	// ClaimRenewal moves an ACTIVE subscription's next billing date to until,
	// so only one caller holding the read version may charge the round.
	ClaimRenewal(db *gorm.DB, subscription *models.Subscription, until time.Time) error
	// FindDue returns ACTIVE subscriptions whose next billing date has passed.
	FindDue(db *gorm.DB, now time.Time, limit int) ([]models.Subscription, error)
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

func (r *SubscriptionRepositoryImpl) Create(db *gorm.DB, subscription *models.Subscription) error {
	if err := db.Create(subscription).Error; err != nil {
		return fmt.Errorf("subscriptionRepo.Create: %w", translate(err, nil))
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := db.First(&subscription, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("subscriptionRepo.FindByID: %w", translate(err, ErrSubscriptionNotFound))
	}
	return &subscription, nil
}

func (r *SubscriptionRepositoryImpl) FindActiveByMemberAndContent(db *gorm.DB, memberID, contentID, optionID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := db.Where("member_id = ? AND content_id = ? AND option_id = ?", memberID, contentID, optionID).
		Where("status IN ?", []models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusPastDue}).
		First(&subscription).Error
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.FindActiveByMemberAndContent: %w", translate(err, ErrSubscriptionNotFound))
	}
	return &subscription, nil
}

func (r *SubscriptionRepositoryImpl) Update(db *gorm.DB, subscription *models.Subscription) error {
	result := db.Model(&models.Subscription{}).
		Where("id = ? AND version = ?", subscription.ID, subscription.Version).
		Updates(map[string]interface{}{
			"billing_key_id":    subscription.BillingKeyID,
			"price":             subscription.Price,
			"round":             subscription.Round,
			"next_billing_date": subscription.NextBillingDate,
			"last_order_id":     subscription.LastOrderID,
			"status":            subscription.Status,
			"failure_count":     subscription.FailureCount,
			"cancelled_at":      subscription.CancelledAt,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("subscriptionRepo.Update: %w", translate(result.Error, nil))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscriptionRepo.Update %s: %w", subscription.ID, ErrVersionConflict)
	}
	subscription.Version++
	return nil
}

func (r *SubscriptionRepositoryImpl) ClaimRenewal(db *gorm.DB, subscription *models.Subscription, until time.Time) error {
	result := db.Model(&models.Subscription{}).
		Where("id = ? AND version = ? AND status = ?", subscription.ID, subscription.Version, models.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"next_billing_date": until,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("subscriptionRepo.ClaimRenewal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscriptionRepo.ClaimRenewal %s: %w", subscription.ID, ErrVersionConflict)
	}
	subscription.NextBillingDate = until
	subscription.Version++
	return nil
}

func (r *SubscriptionRepositoryImpl) FindDue(db *gorm.DB, now time.Time, limit int) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := db.Where("next_billing_date <= ? AND status = ?", now, models.SubscriptionStatusActive).
		Order("next_billing_date ASC").
		Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.FindDue: %w", err)
	}
	return subscriptions, nil
}
