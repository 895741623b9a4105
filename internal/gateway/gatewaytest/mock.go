// Package gatewaytest provides a testify mock of gateway.Client.
package gatewaytest

import (
	"context"

	"contentpay_backend/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

var _ gateway.Client = (*MockClient)(nil)

func (m *MockClient) RequestApproval(ctx context.Context, auth gateway.AuthResult) (*gateway.ApprovalResult, error) {
	args := m.Called(ctx, auth)
	result, _ := args.Get(0).(*gateway.ApprovalResult)
	return result, args.Error(1)
}

func (m *MockClient) RequestRefund(ctx context.Context, cancel gateway.CancelInfo) (*gateway.RefundResult, error) {
	args := m.Called(ctx, cancel)
	result, _ := args.Get(0).(*gateway.RefundResult)
	return result, args.Error(1)
}

func (m *MockClient) IssueBillingKey(ctx context.Context, req gateway.BillingKeyRequest) (*gateway.BillingKeyResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*gateway.BillingKeyResult)
	return result, args.Error(1)
}

func (m *MockClient) ChargeBillingKey(ctx context.Context, req gateway.BillingChargeRequest) (*gateway.ApprovalResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*gateway.ApprovalResult)
	return result, args.Error(1)
}

func (m *MockClient) DeleteBillingKey(ctx context.Context, billingKey string) error {
	args := m.Called(ctx, billingKey)
	return args.Error(0)
}

func (m *MockClient) FindPayment(ctx context.Context, merchantUid string) (*gateway.ApprovalResult, error) {
	args := m.Called(ctx, merchantUid)
	result, _ := args.Get(0).(*gateway.ApprovalResult)
	return result, args.Error(1)
}

func (m *MockClient) RequestPayout(ctx context.Context, req gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*gateway.PayoutResult)
	return result, args.Error(1)
}
