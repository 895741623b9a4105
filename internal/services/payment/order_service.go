package payment

import (
	"time"

	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/internal/types"
	"contentpay_backend/pkg/apperrors"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const merchantUidAttempts = 3

type CreateOrderRequest struct {
	ContentID            string          `json:"content_id" validate:"required"`
	ContentTitle         string          `json:"content_title" validate:"required"`
	ContentType          string          `json:"content_type" validate:"required,oneof=COACHING DOCUMENT"`
	OptionID             string          `json:"option_id"`
	OptionName           string          `json:"option_name"`
	SellerID             string          `json:"seller_id" validate:"required"`
	BuyerName            string          `json:"buyer_name" validate:"max=100"`
	BuyerPhone           string          `json:"buyer_phone" validate:"max=30"`
	BuyerEmail           string          `json:"buyer_email" validate:"omitempty,email"`
	OriginalAmount       decimal.Decimal `json:"original_amount"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	CouponID             *string         `json:"coupon_id"`
	CouponDiscountAmount decimal.Decimal `json:"coupon_discount_amount"`
}

type OrderService interface {
	CreateOrder(db *gorm.DB, id Identity, req *CreateOrderRequest) (*models.Order, error)
	// Place assigns a merchant uid and stores order as PENDING.
	Place(db *gorm.DB, order *models.Order) error
	GetOrder(db *gorm.DB, id Identity, merchantUid string) (*models.Order, error)
}

type orderService struct {
	orderRepo repositories.OrderRepository
}

func NewOrderService(orderRepo repositories.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) CreateOrder(db *gorm.DB, id Identity, req *CreateOrderRequest) (*models.Order, error) {
	if !id.IsMember() && !id.IsGuest() {
		return nil, apperrors.ErrAuthenticationRequired
	}

	contentType, err := models.ToContentType(req.ContentType)
	if err != nil {
		return nil, apperrors.ValidationError(map[string]string{"content_type": err.Error()})
	}

	final, err := finalAmount(req.OriginalAmount, req.DiscountAmount, req.CouponDiscountAmount)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ContentID:            req.ContentID,
		ContentTitle:         req.ContentTitle,
		ContentType:          contentType,
		OptionID:             req.OptionID,
		OptionName:           req.OptionName,
		SellerID:             req.SellerID,
		BuyerName:            req.BuyerName,
		BuyerPhone:           req.BuyerPhone,
		BuyerEmail:           req.BuyerEmail,
		OriginalAmount:       req.OriginalAmount,
		DiscountAmount:       req.DiscountAmount,
		CouponID:             req.CouponID,
		CouponDiscountAmount: req.CouponDiscountAmount,
		FinalAmount:          final.Decimal(),
	}
	if id.IsMember() {
		order.MemberID = lo.ToPtr(id.MemberID)
	} else {
		order.GuestID = lo.ToPtr(id.GuestID)
	}

	if err := s.Place(db, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) Place(db *gorm.DB, order *models.Order) error {
	if (order.MemberID == nil) == (order.GuestID == nil) {
		return apperrors.ValidationError(map[string]string{"owner": "order needs exactly one of member or guest"})
	}
	if err := order.CheckAmounts(); err != nil {
		return apperrors.ValidationError(map[string]string{"amount": err.Error()})
	}
	order.Status = models.OrderStatusPending
	order.Version = 0

	var err error
	for attempt := 0; attempt < merchantUidAttempts; attempt++ {
		order.ID = ""
		order.MerchantUid = types.NewMerchantUid(time.Now()).String()
		err = s.orderRepo.Create(db, order)
		if !repositories.IsDuplicate(err) {
			break
		}
	}
	if err != nil {
		return toServiceError(err)
	}
	return nil
}

func (s *orderService) GetOrder(db *gorm.DB, id Identity, merchantUid string) (*models.Order, error) {
	if _, err := types.ParseMerchantUid(merchantUid); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"merchant_uid": err.Error()})
	}
	order, err := s.orderRepo.FindByMerchantUid(db, merchantUid)
	if err != nil {
		return nil, toServiceError(err)
	}
	if err := ValidateOwnership(order, id); err != nil {
		return nil, err
	}
	return order, nil
}

func finalAmount(original, discount, coupon decimal.Decimal) (types.PaymentAmount, error) {
	invalid := func(field string, err error) error {
		return apperrors.ValidationError(map[string]string{field: err.Error()})
	}

	o, err := types.NewPaymentAmount(original)
	if err != nil {
		return types.PaymentAmount{}, invalid("original_amount", err)
	}
	d, err := types.NewPaymentAmount(discount)
	if err != nil {
		return types.PaymentAmount{}, invalid("discount_amount", err)
	}
	c, err := types.NewPaymentAmount(coupon)
	if err != nil {
		return types.PaymentAmount{}, invalid("coupon_discount_amount", err)
	}

	afterDiscount, err := o.Subtract(d)
	if err != nil {
		return types.PaymentAmount{}, invalid("discount_amount", err)
	}
	final, err := afterDiscount.Subtract(c)
	if err != nil {
		return types.PaymentAmount{}, invalid("coupon_discount_amount", err)
	}
	return final, nil
}
