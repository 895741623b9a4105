package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"contentpay_backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentRecordRepository interface {
	// Create stores the record; raw is encoded into RawResponse.
	Create(db *gorm.DB, record *models.PaymentRecord, raw any) error
	FindByOrderID(db *gorm.DB, orderID string) (*models.PaymentRecord, error)
	FindByMerchantUid(db *gorm.DB, merchantUid string) (*models.PaymentRecord, error)
	MarkCancelled(db *gorm.DB, id string, cancel PaymentCancelInfo) error
	DecodeRaw(record *models.PaymentRecord, dst any) error
}

type PaymentCancelInfo struct {
	CancelledAt   time.Time
	Reason        string
	Amount        decimal.Decimal
	TransactionID string
}

type PaymentRecordRepositoryImpl struct{}

func NewPaymentRecordRepository() PaymentRecordRepository {
	return &PaymentRecordRepositoryImpl{}
}

func (r *PaymentRecordRepositoryImpl) Create(db *gorm.DB, record *models.PaymentRecord, raw any) error {
	if raw != nil {
		payload, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("paymentRecordRepo.Create: encode raw response: %w", err)
		}
		record.RawResponse = datatypes.JSON(payload)
	}
	if err := db.Create(record).Error; err != nil {
		return fmt.Errorf("paymentRecordRepo.Create: %w", translate(err, nil))
	}
	return nil
}

func (r *PaymentRecordRepositoryImpl) FindByOrderID(db *gorm.DB, orderID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := db.Where("order_id = ?", orderID).First(&record).Error; err != nil {
		return nil, fmt.Errorf("paymentRecordRepo.FindByOrderID: %w", translate(err, ErrPaymentRecordNotFound))
	}
	return &record, nil
}

func (r *PaymentRecordRepositoryImpl) FindByMerchantUid(db *gorm.DB, merchantUid string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := db.Where("merchant_uid = ?", merchantUid).First(&record).Error; err != nil {
		return nil, fmt.Errorf("paymentRecordRepo.FindByMerchantUid: %w", translate(err, ErrPaymentRecordNotFound))
	}
	return &record, nil
}

func (r *PaymentRecordRepositoryImpl) MarkCancelled(db *gorm.DB, id string, cancel PaymentCancelInfo) error {
	result := db.Model(&models.PaymentRecord{}).
		Where("id = ? AND cancelled_at IS NULL", id).
		Updates(map[string]interface{}{
			"cancelled_at":          cancel.CancelledAt,
			"cancel_reason":         cancel.Reason,
			"cancel_amount":         cancel.Amount,
			"cancel_transaction_id": cancel.TransactionID,
		})
	if result.Error != nil {
		return fmt.Errorf("paymentRecordRepo.MarkCancelled: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("paymentRecordRepo.MarkCancelled %s: %w", id, ErrPaymentRecordNotFound)
	}
	return nil
}

func (r *PaymentRecordRepositoryImpl) DecodeRaw(record *models.PaymentRecord, dst any) error {
	if len(record.RawResponse) == 0 {
		return nil
	}
	if err := json.Unmarshal(record.RawResponse, dst); err != nil {
		return fmt.Errorf("paymentRecordRepo.DecodeRaw: %w", err)
	}
	return nil
}
