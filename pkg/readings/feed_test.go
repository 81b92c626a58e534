package readings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/gaugewatch/models"
)

func TestFeed_DeliversToSubscribers(t *testing.T) {
	feed := NewFeed(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := feed.Subscribe(ctx)
	b := feed.Subscribe(ctx)
	assert.Equal(t, 2, feed.Subscribers())

	feed.ReadingCreated(ctx, models.Reading{ID: "r1"})

	for _, ch := range []<-chan models.Reading{a, b} {
		select {
		case r := <-ch:
			assert.Equal(t, "r1", r.ID)
		case <-time.After(time.Second):
			t.Fatal("reading not delivered")
		}
	}
}

func TestFeed_SlowSubscriberDrops(t *testing.T) {
	feed := NewFeed(1)
	drops := 0
	feed.OnDrop(func() { drops++ })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := feed.Subscribe(ctx)

	feed.ReadingCreated(ctx, models.Reading{ID: "r1"})
	feed.ReadingCreated(ctx, models.Reading{ID: "r2"})
	feed.ReadingCreated(ctx, models.Reading{ID: "r3"})

	assert.Equal(t, uint64(2), feed.Dropped())
	assert.Equal(t, 2, drops)
	assert.Equal(t, "r1", (<-ch).ID)
}

func TestFeed_UnsubscribeOnCancel(t *testing.T) {
	feed := NewFeed(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch := feed.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	require.Eventually(t, func() bool { return feed.Subscribers() == 0 }, time.Second, 10*time.Millisecond)

	// publishing after unsubscribe must not panic
	feed.ReadingCreated(context.Background(), models.Reading{ID: "late"})
}
