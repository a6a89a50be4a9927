package fanout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/fanout"
	"github.com/dmitrymomot/dispatch/pkg/notification"
)

func drain(o *fanout.Outbox) []fanout.Event {
	var events []fanout.Event
	for {
		select {
		case ev := <-o.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestHub_DeliverTargetsUserChannel(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	alice, alice2, bob := fanout.NewOutbox(4), fanout.NewOutbox(4), fanout.NewOutbox(4)
	require.NoError(t, hub.Join(alice, "1"))
	require.NoError(t, hub.Join(alice2, "1"))
	require.NoError(t, hub.Join(bob, "2"))

	n := notification.Notification{ID: "n1", UserID: "1", Title: "hi"}
	require.NoError(t, hub.Deliver(context.Background(), n))

	for _, s := range []*fanout.Outbox{alice, alice2} {
		events := drain(s)
		require.Len(t, events, 1)
		assert.Equal(t, fanout.EventNotification, events[0].Name)
		assert.Equal(t, n, events[0].Payload)
	}
	assert.Empty(t, drain(bob))
}

func TestHub_DeliverWithoutSessionsIsNoop(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	assert.NoError(t, hub.Deliver(context.Background(), notification.Notification{UserID: "404"}))
}

func TestHub_JoinReplacesBinding(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	s := fanout.NewOutbox(4)
	require.NoError(t, hub.Join(s, "1"))
	require.NoError(t, hub.Join(s, "2"))

	assert.Equal(t, 0, hub.Subscribers("1"))
	assert.Equal(t, 1, hub.Subscribers("2"))
	assert.Equal(t, 1, hub.Sessions())

	require.NoError(t, hub.Deliver(context.Background(), notification.Notification{UserID: "1"}))
	assert.Empty(t, drain(s))
}

func TestHub_LeaveIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	s := fanout.NewOutbox(4)
	require.NoError(t, hub.Join(s, "1"))

	hub.Leave(s)
	hub.Leave(s)
	hub.Leave(fanout.NewOutbox(1))

	assert.Equal(t, 0, hub.Sessions())
	assert.Equal(t, 0, hub.Subscribers("1"))
}

func TestHub_UnbindKeepsBroadcasts(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	s := fanout.NewOutbox(4)
	require.NoError(t, hub.Join(s, "1"))
	hub.Unbind(s)

	require.NoError(t, hub.Deliver(context.Background(), notification.Notification{UserID: "1"}))
	require.NoError(t, hub.Broadcast(context.Background(), fanout.Alert{Type: "maintenance"}))

	events := drain(s)
	require.Len(t, events, 1)
	assert.Equal(t, fanout.EventSystemAlert, events[0].Name)
}

func TestHub_BroadcastReachesEveryRegisteredSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	hub := fanout.NewHub(fanout.WithClock(func() time.Time { return now }))
	joined, anonymous := fanout.NewOutbox(4), fanout.NewOutbox(4)
	require.NoError(t, hub.Join(joined, "1"))
	require.NoError(t, hub.Register(anonymous))

	require.NoError(t, hub.Broadcast(context.Background(), fanout.Alert{Type: "maintenance", Message: "down at 5", Severity: "warning"}))

	for _, s := range []*fanout.Outbox{joined, anonymous} {
		events := drain(s)
		require.Len(t, events, 1)
		alert, ok := events[0].Payload.(fanout.Alert)
		require.True(t, ok)
		assert.Equal(t, "maintenance", alert.Type)
		assert.Equal(t, now, alert.Timestamp)
	}
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	slow, fast := fanout.NewOutbox(1), fanout.NewOutbox(8)
	require.NoError(t, hub.Join(slow, "1"))
	require.NoError(t, hub.Join(fast, "1"))

	for range 3 {
		require.NoError(t, hub.Deliver(context.Background(), notification.Notification{UserID: "1"}))
	}

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow session should be closed")
	}
	assert.Equal(t, 1, hub.Subscribers("1"))
	assert.Len(t, drain(fast), 3)
	assert.ErrorIs(t, slow.Send(fanout.Event{}), fanout.ErrSessionClosed)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	s := fanout.NewOutbox(1)
	require.NoError(t, hub.Join(s, "1"))
	require.NoError(t, hub.Close())

	select {
	case <-s.Done():
	default:
		t.Fatal("session should be closed")
	}
	assert.ErrorIs(t, hub.Register(fanout.NewOutbox(1)), fanout.ErrHubClosed)
	assert.ErrorIs(t, hub.Deliver(context.Background(), notification.Notification{UserID: "1"}), fanout.ErrHubClosed)
	assert.NoError(t, hub.Close())
}

func TestHub_Validation(t *testing.T) {
	t.Parallel()

	hub := fanout.NewHub()
	assert.ErrorIs(t, hub.Register(nil), fanout.ErrNilSession)
	assert.ErrorIs(t, hub.Join(nil, "1"), fanout.ErrNilSession)
	assert.ErrorIs(t, hub.Join(fanout.NewOutbox(1), ""), fanout.ErrEmptyUserID)
	assert.Equal(t, "user_42", fanout.ChannelName("42"))
}
