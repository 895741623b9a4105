package events_test

import (
	"testing"

	"contentpay_backend/internal/email"
	"contentpay_backend/internal/events"
	"contentpay_backend/internal/models"
	"contentpay_backend/internal/repositories"
	"contentpay_backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNotificationListener_Completed(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewNotificationRepository()
	l := events.NewNotificationListener(db, repo)

	err := l.Handle(t.Context(), events.PaymentCompleted{
		OrderID:      "order-1",
		MerchantUid:  "ORDER-20250101-120000-ABC123",
		MemberID:     "member-1",
		SellerID:     "seller-1",
		ContentTitle: "Go in Practice",
		Amount:       decimal.NewFromInt(29900),
	})
	require.NoError(t, err)

	seller, err := repo.FindByUser(db, "seller-1", 10)
	require.NoError(t, err)
	require.Len(t, seller, 1)
	assert.Equal(t, models.NotificationTypeContentSold, seller[0].Type)

	data, err := repo.DecodeData(&seller[0])
	require.NoError(t, err)
	assert.Equal(t, "29900.00", data["amount"])

	buyer, err := repo.FindByUser(db, "member-1", 10)
	require.NoError(t, err)
	assert.Len(t, buyer, 1)
}

func TestNotificationListener_GuestGetsNoInAppNotification(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewNotificationRepository()
	l := events.NewNotificationListener(db, repo)

	require.NoError(t, l.Handle(t.Context(), events.PaymentRefunded{
		GuestID:  "guest-1",
		SellerID: "seller-1",
		Amount:   decimal.NewFromInt(100),
	}))

	guest, err := repo.FindByUser(db, "guest-1", 10)
	require.NoError(t, err)
	assert.Empty(t, guest)

	seller, err := repo.FindByUser(db, "seller-1", 10)
	require.NoError(t, err)
	assert.Len(t, seller, 1)
}

func TestEmailListener(t *testing.T) {
	formatter, err := email.NewAmountFormatter("KRW", language.English)
	require.NoError(t, err)
	tm, err := email.NewDefaultTemplateManager(formatter)
	require.NoError(t, err)
	provider := email.NewLogProvider(tm)
	l := events.NewEmailListener(provider)

	require.NoError(t, l.Handle(t.Context(), events.PaymentCompleted{
		BuyerEmail:   "buyer@example.com",
		BuyerName:    "Kim",
		ContentTitle: "Go in Practice",
		MerchantUid:  "ORDER-20250101-120000-ABC123",
		Amount:       decimal.NewFromInt(29900),
	}))
	require.NoError(t, l.Handle(t.Context(), events.PaymentRefunded{Amount: decimal.NewFromInt(1)}))

	sent := provider.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Payment receipt", sent[0].Subject)
	assert.Contains(t, sent[0].HTMLBody, "29,900 KRW")
}
