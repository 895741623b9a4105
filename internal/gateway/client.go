package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contentpay_backend/internal/logger"

	"github.com/shopspring/decimal"
)

var (
	ErrUnexpectedStatus  = errors.New("gateway: unexpected response status")
	ErrMalformedResponse = errors.New("gateway: malformed response")
)

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// HTTPClient is the JSON over HTTP implementation of Client.
type HTTPClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// errorBody is the gateway's failure envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type paymentBody struct {
	PaymentKey    string          `json:"paymentKey"`
	MerchantUid   string          `json:"merchantUid"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	Method        string          `json:"method"`
	PayerID       string          `json:"payerId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TaxFree       bool            `json:"taxFree"`
	TaxFreeAmount decimal.Decimal `json:"taxFreeAmount"`
	Vat           decimal.Decimal `json:"vat"`
	ApprovedAt    time.Time       `json:"approvedAt"`
	Buyer         Buyer           `json:"buyer"`
	Card          Card            `json:"card"`
}

func (b paymentBody) toResult(raw []byte) *ApprovalResult {
	return &ApprovalResult{
		Success:         true,
		Status:          b.Status,
		MerchantUid:     b.MerchantUid,
		PgTransactionID: b.TransactionID,
		PayMethod:       b.Method,
		PayerID:         b.PayerID,
		TotalAmount:     b.TotalAmount,
		TaxFree:         b.TaxFree,
		TaxFreeAmount:   b.TaxFreeAmount,
		VatAmount:       b.Vat,
		Buyer:           b.Buyer,
		Card:            b.Card,
		ApprovedAt:      b.ApprovedAt,
		Raw:             json.RawMessage(raw),
	}
}

// do sends one request. A 2xx body is decoded into out and declined is false;
// a 4xx body is decoded as errorBody and declined is true; anything else is
// an error.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (raw []byte, declined *errorBody, err error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("gateway: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway: read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return raw, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
		}
		return raw, nil, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var e errorBody
		if err := json.Unmarshal(raw, &e); err != nil || e.Code == "" {
			return raw, nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return raw, &e, nil
	default:
		return raw, nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}

func (c *HTTPClient) RequestApproval(ctx context.Context, auth AuthResult) (result *ApprovalResult, err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("approve", auth.MerchantUid, time.Since(start), err) }()

	in := map[string]any{
		"paymentKey":  auth.PaymentKey,
		"merchantUid": auth.MerchantUid,
		"amount":      auth.Amount,
	}
	var out paymentBody
	raw, declined, err := c.do(ctx, http.MethodPost, "/payments/confirm", in, &out)
	if err != nil {
		return nil, err
	}
	if declined != nil {
		return &ApprovalResult{
			MerchantUid:  auth.MerchantUid,
			ErrorCode:    declined.Code,
			ErrorMessage: declined.Message,
			Raw:          json.RawMessage(raw),
		}, nil
	}
	return out.toResult(raw), nil
}

func (c *HTTPClient) RequestRefund(ctx context.Context, cancel CancelInfo) (result *RefundResult, err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("refund", cancel.MerchantUid, time.Since(start), err) }()

	in := map[string]any{
		"transactionId": cancel.PgTransactionID,
		"cancelAmount":  cancel.Amount,
		"cancelReason":  cancel.Reason,
	}
	var out struct {
		CancelTransactionID string          `json:"cancelTransactionId"`
		CancelAmount        decimal.Decimal `json:"cancelAmount"`
		CancelledAt         time.Time       `json:"cancelledAt"`
	}
	raw, declined, err := c.do(ctx, http.MethodPost, "/payments/"+url.PathEscape(cancel.MerchantUid)+"/cancel", in, &out)
	if err != nil {
		return nil, err
	}
	if declined != nil {
		return &RefundResult{ErrorCode: declined.Code, ErrorMessage: declined.Message, Raw: raw}, nil
	}
	return &RefundResult{
		Success:             true,
		CancelTransactionID: out.CancelTransactionID,
		CancelledAmount:     out.CancelAmount,
		CancelledAt:         out.CancelledAt,
		Raw:                 raw,
	}, nil
}

func (c *HTTPClient) IssueBillingKey(ctx context.Context, req BillingKeyRequest) (result *BillingKeyResult, err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("issue_billing_key", "", time.Since(start), err) }()

	in := map[string]any{"customerKey": req.CustomerKey, "authKey": req.AuthKey}
	var out struct {
		BillingKey  string `json:"billingKey"`
		CustomerKey string `json:"customerKey"`
		CardCompany string `json:"cardCompany"`
		CardNumber  string `json:"cardNumber"`
	}
	_, declined, err := c.do(ctx, http.MethodPost, "/billing/authorizations/issue", in, &out)
	if err != nil {
		return nil, err
	}
	if declined != nil {
		return &BillingKeyResult{ErrorCode: declined.Code, ErrorMessage: declined.Message}, nil
	}
	return &BillingKeyResult{
		Success:     true,
		BillingKey:  out.BillingKey,
		CustomerKey: out.CustomerKey,
		CardCompany: out.CardCompany,
		CardNumber:  out.CardNumber,
	}, nil
}

func (c *HTTPClient) ChargeBillingKey(ctx context.Context, req BillingChargeRequest) (result *ApprovalResult, err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("charge_billing_key", req.MerchantUid, time.Since(start), err) }()

	in := map[string]any{
		"customerKey": req.CustomerKey,
		"merchantUid": req.MerchantUid,
		"orderName":   req.OrderName,
		"amount":      req.Amount,
		"buyer":       req.Buyer,
	}
	var out paymentBody
	raw, declined, err := c.do(ctx, http.MethodPost, "/billing/"+url.PathEscape(req.BillingKey), in, &out)
	if err != nil {
		return nil, err
	}
	if declined != nil {
		return &ApprovalResult{
			MerchantUid:  req.MerchantUid,
			ErrorCode:    declined.Code,
			ErrorMessage: declined.Message,
			Raw:          raw,
		}, nil
	}
	return out.toResult(raw), nil
}

func (c *HTTPClient) DeleteBillingKey(ctx context.Context, billingKey string) (err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("delete_billing_key", "", time.Since(start), err) }()

	_, declined, err := c.do(ctx, http.MethodDelete, "/billing/"+url.PathEscape(billingKey), nil, nil)
	if err != nil {
		return err
	}
	if declined != nil {
		return fmt.Errorf("gateway: delete billing key declined: %s %s", declined.Code, declined.Message)
	}
	return nil
}

func (c *HTTPClient) FindPayment(ctx context.Context, merchantUid string) (result *ApprovalResult, err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("find_payment", merchantUid, time.Since(start), err) }()

	var out paymentBody
	raw, declined, err := c.do(ctx, http.MethodGet, "/payments/orders/"+url.PathEscape(merchantUid), nil, &out)
	if err != nil {
		return nil, err
	}
	if declined != nil {
		return &ApprovalResult{
			Status:       PaymentStatusNotFound,
			MerchantUid:  merchantUid,
			ErrorCode:    declined.Code,
			ErrorMessage: declined.Message,
			Raw:          raw,
		}, nil
	}
	result = out.toResult(raw)
	result.Success = out.Status == PaymentStatusPaid
	return result, nil
}

func (c *HTTPClient) RequestPayout(ctx context.Context, req PayoutRequest) (result *PayoutResult, err error) {
	start := time.Now()
	defer func() { logger.GatewayLog("payout", req.SettlementID, time.Since(start), err) }()

	in := map[string]any{
		"referenceId": req.SettlementID,
		"sellerId":    req.SellerID,
		"amount":      req.Amount,
	}
	var out struct {
		PayoutID string `json:"payoutId"`
	}
	_, declined, err := c.do(ctx, http.MethodPost, "/payouts", in, &out)
	if err != nil {
		return nil, err
	}
	if declined != nil {
		return &PayoutResult{ErrorCode: declined.Code, ErrorMessage: declined.Message}, nil
	}
	return &PayoutResult{Success: true, PayoutTransactionID: out.PayoutID}, nil
}
