package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "transfers.9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", Subject("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"))
}

func TestResultEvent_JSON(t *testing.T) {
	event := &ResultEvent{
		Operation:     "native_transfer",
		Status:        "failed",
		WalletAddress: "owner",
		Category:      "cancelled",
		Reason:        "signing cancelled by user",
		PublishedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "cancelled", decoded["category"])
	assert.NotContains(t, decoded, "signature", "empty signature is omitted")
	assert.NotContains(t, decoded, "base_units")
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	ctx := context.Background()

	require.NoError(t, m.PublishResult(ctx, &ResultEvent{WalletAddress: "a", Status: "confirmed"}))
	require.NoError(t, m.PublishResult(ctx, &ResultEvent{WalletAddress: "b", Status: "failed"}))

	assert.Len(t, m.GetPublishedEvents(), 2)
	assert.Len(t, m.GetPublishedEventsForWallet("a"), 1)

	m.SetPublishError(assert.AnError)
	assert.Error(t, m.PublishResult(ctx, &ResultEvent{WalletAddress: "a"}))
	assert.Len(t, m.GetPublishedEvents(), 2)

	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
}
