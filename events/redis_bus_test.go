package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBusFansOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	ctx := context.Background()

	a, err := NewRedisBus(ctx, newClient(), "winterarc:events", nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewRedisBus(ctx, newClient(), "winterarc:events", nil)
	require.NoError(t, err)
	defer b.Close()

	chA, cancelA := a.Subscribe()
	defer cancelA()
	chB, cancelB := b.Subscribe()
	defer cancelB()

	sent := Event{Type: TypeCompleted, UserID: 3, QuestionID: "two-sum", TotalCoins: 10, At: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, a.Publish(ctx, sent))

	for _, ch := range []<-chan Event{chA, chB} {
		select {
		case got := <-ch:
			assert.Equal(t, sent.Type, got.Type)
			assert.Equal(t, sent.UserID, got.UserID)
			assert.Equal(t, sent.QuestionID, got.QuestionID)
			assert.True(t, sent.At.Equal(got.At))
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestRedisBusRequiresClient(t *testing.T) {
	_, err := NewRedisBus(context.Background(), nil, "c", nil)
	assert.Error(t, err)
}

func TestRedisBusCloseEndsSubscriptions(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	bus, err := NewRedisBus(context.Background(), rdb, "c", nil)
	require.NoError(t, err)
	ch, _ := bus.Subscribe()
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
}
