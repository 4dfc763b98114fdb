package notifications

import (
	"context"
	"errors"
	"testing"

	"bricknest-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupEmitter(t *testing.T) (*Emitter, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Notification{}))
	return &Emitter{DB: db}, db
}

func TestEmit_DefaultsAndListing(t *testing.T) {
	e, _ := setupEmitter(t)
	ctx := context.Background()
	recipient := uuid.New()
	related := uuid.New()

	e.Emit(ctx, Event{
		RecipientID: recipient,
		Type:        "purchase_request_approved",
		Title:       "Purchase request approved",
		Message:     "Your purchase request was approved",
		RelatedID:   &related,
	})

	list, err := e.ListForRecipient(ctx, recipient)
	require.NoError(t, err)
	require.Len(t, list, 1)
	n := list[0]
	assert.Equal(t, domain.PriorityNormal, n.Priority)
	require.NotNil(t, n.RelatedURL)
	assert.Equal(t, "/requests/"+related.String(), *n.RelatedURL)
	assert.Nil(t, n.ReadAt)
}

func TestEmit_NeverPanicsWithoutDB(t *testing.T) {
	var e *Emitter
	e.Emit(context.Background(), Event{RecipientID: uuid.New(), Type: "noop"})

	e = &Emitter{}
	e.Emit(context.Background(), Event{RecipientID: uuid.New(), Type: "noop"})
}

func TestMarkRead_OwnUnreadOnly(t *testing.T) {
	e, _ := setupEmitter(t)
	ctx := context.Background()
	recipient := uuid.New()

	e.Emit(ctx, Event{RecipientID: recipient, Type: "tokens_assigned", Title: "Tokens assigned", Message: "m"})
	list, err := e.ListForRecipient(ctx, recipient)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// someone else's id does not match
	err = e.MarkRead(ctx, list[0].NotificationID, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, e.MarkRead(ctx, list[0].NotificationID, recipient))

	// second mark finds nothing unread
	err = e.MarkRead(ctx, list[0].NotificationID, recipient)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	list, err = e.ListForRecipient(ctx, recipient)
	require.NoError(t, err)
	require.NotNil(t, list[0].ReadAt)
}
