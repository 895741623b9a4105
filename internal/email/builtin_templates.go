package email

const (
	TemplatePaymentReceipt = "payment_receipt"
	TemplatePaymentRefund  = "payment_refund"
)

var builtinTemplates = map[string]string{
	TemplatePaymentReceipt: `<html><body>
<p>Hello {{.BuyerName}},</p>
<p>Your payment for <strong>{{.ContentTitle}}</strong>{{if .OptionName}} ({{.OptionName}}){{end}} is complete.</p>
<table>
<tr><td>Order</td><td>{{.MerchantUid}}</td></tr>
<tr><td>Amount</td><td>{{amount .Amount}}</td></tr>
<tr><td>Paid at</td><td>{{.PaidAt}}</td></tr>
</table>
</body></html>`,

	TemplatePaymentRefund: `<html><body>
<p>Hello {{.BuyerName}},</p>
<p>Your payment for <strong>{{.ContentTitle}}</strong> has been refunded.</p>
<table>
<tr><td>Order</td><td>{{.MerchantUid}}</td></tr>
<tr><td>Refunded</td><td>{{amount .Amount}}</td></tr>
{{if .Reason}}<tr><td>Reason</td><td>{{.Reason}}</td></tr>{{end}}
</table>
</body></html>`,
}
