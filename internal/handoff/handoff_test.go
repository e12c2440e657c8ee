package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/pkg/platform/sentinel"
	"intake/pkg/testutil"
)

func sampleTransfer() Transfer {
	return Transfer{
		SessionID:     "6f1c2a7e-1d3b-4a59-9d55-0f6f9c1f7f10",
		UID:           "3160 9723 2695",
		CandidateName: "Ravi Sharma",
		MotherName:    "Sunita Sharma",
		Caste:         "OBC",
		VerifiedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// exerciseSlot runs the single-consume contract against any Slot.
func exerciseSlot(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	_, err := slot.Take(ctx)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	first := sampleTransfer()
	require.NoError(t, slot.Put(ctx, first))
	second := first
	second.Caste = "SC"
	require.NoError(t, slot.Put(ctx, second))

	got, err := slot.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = slot.Take(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemorySlot(t *testing.T) {
	exerciseSlot(t, NewMemorySlot())
}

func TestRedisSlot(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)
	exerciseSlot(t, NewRedisSlot(client, time.Minute))
}

func TestRedisSlotExpires(t *testing.T) {
	mr, client := testutil.NewMiniRedis(t)
	slot := NewRedisSlot(client, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, slot.Put(ctx, sampleTransfer()))
	assert.Equal(t, 30*time.Minute, mr.TTL(DefaultKey))

	mr.FastForward(31 * time.Minute)
	_, err := slot.Take(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisSlotUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	slot := NewRedisSlot(client, time.Minute)
	mr.Close()

	err := slot.Put(context.Background(), sampleTransfer())
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	_, err = slot.Take(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
