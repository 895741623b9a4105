package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type RegisterBillingKeyRequest struct {
	AuthKey     string `json:"auth_key" validate:"required"`
	CustomerKey string `json:"customer_key" validate:"omitempty,max=100"`
}

type BillingKeyService interface {
	// Register issues a billing key with the gateway and makes it the member's
	// only ACTIVE key.
	Register(ctx context.Context, db *gorm.DB, memberID string, req RegisterBillingKeyRequest) (*models.BillingKey, error)
	Active(db *gorm.DB, memberID string) (*models.BillingKey, error)
	Delete(ctx context.Context, db *gorm.DB, memberID, keyID string) error
}

type billingKeyService struct {
	gateway gateway.Client
	keyRepo repositories.BillingKeyRepository
}

func NewBillingKeyService(gw gateway.Client, keyRepo repositories.BillingKeyRepository) BillingKeyService {
	return &billingKeyService{gateway: gw, keyRepo: keyRepo}
}

func (s *billingKeyService) Register(ctx context.Context, db *gorm.DB, memberID string, req RegisterBillingKeyRequest) (*models.BillingKey, error) {
	if memberID == "" {
		return nil, apperrors.ErrAuthenticationRequired
	}
	customerKey := req.CustomerKey
	if customerKey == "" {
		customerKey = memberID
	}

	issued, err := s.gateway.IssueBillingKey(ctx, gateway.BillingKeyRequest{
		CustomerKey: customerKey,
		AuthKey:     req.AuthKey,
	})
	if err != nil {
		return nil, apperrors.ErrGatewayAPI(err, "", "Billing key request failed")
	}
	if !issued.Success {
		return nil, apperrors.ErrGatewayAPI(nil, issued.ErrorCode, "Billing key was not issued")
	}

	now := time.Now().UTC()
	key := &models.BillingKey{
		MemberID:    memberID,
		CustomerKey: customerKey,
		BillingKey:  issued.BillingKey,
		CardCompany: issued.CardCompany,
		CardNumber:  issued.CardNumber,
		Status:      models.BillingKeyStatusActive,
		IssuedAt:    now,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ProcessingError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.keyRepo.Create(tx, key); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, apperrors.ErrConflict(err, "billing", "Billing key is already registered")
		}
		return nil, apperrors.ProcessingError(err)
	}
	if err := s.keyRepo.DeactivateOthers(tx, memberID, key.ID, now); err != nil {
		return nil, apperrors.ProcessingError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.ProcessingError(fmt.Errorf("commit billing key: %w", err))
	}

	logger.CtxInfo(ctx, "billing key registered", "member_id", memberID, "billing_key_id", key.ID)
	return key, nil
}

func (s *billingKeyService) Active(db *gorm.DB, memberID string) (*models.BillingKey, error) {
	key, err := s.keyRepo.FindActiveByMember(db, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrBillingKeyNotFound) {
			return nil, apperrors.ErrBillingKeyNotFound.WithError(err)
		}
		return nil, apperrors.ProcessingError(err)
	}
	return key, nil
}

func (s *billingKeyService) Delete(ctx context.Context, db *gorm.DB, memberID, keyID string) error {
	key, err := s.keyRepo.FindByID(db, keyID)
	if err != nil {
		if errors.Is(err, repositories.ErrBillingKeyNotFound) {
			return apperrors.ErrBillingKeyNotFound.WithError(err)
		}
		return apperrors.ProcessingError(err)
	}
	if key.MemberID != memberID {
		return apperrors.ErrUnauthorized("billing", "Billing key does not belong to the requester")
	}
	if !key.IsActive() {
		return apperrors.ErrInvalidStatus("billing", key.Status, models.BillingKeyStatusActive)
	}

	if err := s.gateway.DeleteBillingKey(ctx, key.BillingKey); err != nil {
		return apperrors.ErrGatewayAPI(err, "", "Billing key deletion failed")
	}
	if err := s.keyRepo.UpdateStatus(db, key.ID, models.BillingKeyStatusInactive, time.Now().UTC()); err != nil {
		return apperrors.ProcessingError(err)
	}
	return nil
}
