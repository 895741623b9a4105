package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_AddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithMemberID(ctx, "member-1")
	ctx = WithMerchantUid(ctx, "ORDER-20250101-120000-ABC123")

	CtxInfo(ctx, "approved", "amount", "29900")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "member-1", entry["member_id"])
	assert.Equal(t, "ORDER-20250101-120000-ABC123", entry["merchant_uid"])
	assert.NotContains(t, entry, "guest_id")
	assert.Equal(t, "29900", entry["amount"])
}
