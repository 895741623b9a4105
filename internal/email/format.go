package email

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AmountFormatter prints amounts with digit grouping and an ISO currency code.
type AmountFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

func NewAmountFormatter(isoCode string, tag language.Tag) (*AmountFormatter, error) {
	unit, err := currency.ParseISO(isoCode)
	if err != nil {
		return nil, err
	}
	return &AmountFormatter{unit: unit, printer: message.NewPrinter(tag)}, nil
}

func (f *AmountFormatter) Format(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return f.printer.Sprintf("%d %s", amount.IntPart(), f.unit)
	}
	return f.printer.Sprintf("%.2f %s", amount.InexactFloat64(), f.unit)
}
