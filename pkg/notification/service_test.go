package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/pkg/notification"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores then delivers", func(t *testing.T) {
		t.Parallel()
		store := notification.NewMemoryStore()
		deliverer := &MockDeliverer{}
		deliverer.On("Deliver", mock.Anything, mock.MatchedBy(func(n notification.Notification) bool {
			return n.UserID == "1" && n.ID != ""
		})).Return(nil).Once()

		svc := notification.NewService(store, notification.WithDeliverer(deliverer))
		n, err := svc.Create(ctx, validInput("1"))
		require.NoError(t, err)

		got, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)
		deliverer.AssertExpectations(t)
	})

	t.Run("delivery failure does not fail create", func(t *testing.T) {
		t.Parallel()
		store := notification.NewMemoryStore()
		deliverer := &MockDeliverer{}
		deliverer.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("socket closed"))

		svc := notification.NewService(store, notification.WithDeliverer(deliverer))
		n, err := svc.Create(ctx, validInput("1"))
		require.NoError(t, err)

		list, err := svc.List(ctx, "1", 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, n.ID, list[0].ID)
	})

	t.Run("invalid input is neither stored nor delivered", func(t *testing.T) {
		t.Parallel()
		store := notification.NewMemoryStore()
		deliverer := &MockDeliverer{}

		svc := notification.NewService(store, notification.WithDeliverer(deliverer))
		_, err := svc.Create(ctx, notification.CreateInput{UserID: "1"})
		require.ErrorIs(t, err, notification.ErrInvalidInput)

		assert.Equal(t, 0, store.Len())
		deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	})
}

func TestService_CreateForUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := notification.NewMemoryStore()
	deliverer := &MockDeliverer{}
	deliverer.On("Deliver", mock.Anything, mock.Anything).Return(nil)
	svc := notification.NewService(store, notification.WithDeliverer(deliverer))

	tmpl := notification.CreateInput{
		Type:     notification.TypeSystemAlert,
		Title:    "System Alert: maintenance",
		Message:  "Down at midnight",
		Priority: notification.PriorityHigh,
	}
	created, err := svc.CreateForUsers(ctx, []string{"1", "", "2"}, tmpl)

	require.ErrorIs(t, err, notification.ErrInvalidInput)
	require.Len(t, created, 2)
	assert.Equal(t, "1", created[0].UserID)
	assert.Equal(t, "2", created[1].UserID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Equal(t, 2, store.Len())
	deliverer.AssertNumberOfCalls(t, "Deliver", 2)
}

func TestService_MarkRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := notification.NewService(notification.NewMemoryStore())
	n, err := svc.Create(ctx, validInput("1"))
	require.NoError(t, err)

	updated, err := svc.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, updated.Read)

	_, err = svc.MarkRead(ctx, "missing")
	assert.ErrorIs(t, err, notification.ErrNotFound)

	got, err := svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
}
