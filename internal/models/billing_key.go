package models

import "time"

type BillingKey struct {
	BaseModel
	MemberID      string           `gorm:"type:varchar(36);not null;index" json:"member_id"`
	CustomerKey   string           `gorm:"type:varchar(100);not null" json:"customer_key"`
	BillingKey    string           `gorm:"type:varchar(200);not null;uniqueIndex" json:"-"`
	CardCompany   string           `json:"card_company"`
	CardNumber    string           `json:"card_number"`
	Status        BillingKeyStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	IssuedAt      time.Time        `json:"issued_at"`
	DeactivatedAt *time.Time       `json:"deactivated_at,omitempty"`
}

func (k *BillingKey) IsActive() bool {
	return k.Status == BillingKeyStatusActive
}
