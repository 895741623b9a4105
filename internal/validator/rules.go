package validator

import (
	"fmt"
	"time"

	"contentpay_backend/internal/models"
	"contentpay_backend/internal/types"

	"github.com/go-playground/validator/v10"
)

// rule is a custom tag with the message reported when it fails.
// Empty values pass every rule; "required" covers presence.
type rule struct {
	tag     string
	check   func(value string) bool
	message string
}

var paymentRules = []rule{
	{
		tag:     "is-merchant-uid",
		check:   func(v string) bool { _, err := types.ParseMerchantUid(v); return err == nil },
		message: "Must look like ORDER-yyyyMMdd-HHmmss-XXXXXX",
	},
	{
		tag:     "is-month",
		check:   func(v string) bool { _, err := time.Parse("2006-01", v); return err == nil },
		message: "Must be a month in YYYY-MM format",
	},
	{
		tag:     "is-content-type",
		check:   func(v string) bool { _, err := models.ToContentType(v); return err == nil },
		message: "Must be COACHING or DOCUMENT",
	},
	{
		tag:     "is-settlement-status",
		check:   func(v string) bool { _, err := models.ToSettlementStatus(v); return err == nil },
		message: "Must be a settlement status",
	},
}

func registerRules(v *validator.Validate, rules []rule) error {
	for _, r := range rules {
		check := r.check
		fn := func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "" || check(value)
		}
		if err := v.RegisterValidation(r.tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", r.tag, err)
		}
	}
	return nil
}
