package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"bricknest-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event is the fire-and-forget payload emitted on every status-changing
// transition. Delivery is an external collaborator's job; the emitter only
// hands the event off as a Notification row.
type Event struct {
	RecipientID uuid.UUID
	Type        string
	Title       string
	Message     string
	RelatedID   *uuid.UUID
	RelatedURL  *string
	Priority    string
	Data        map[string]interface{}
}

// Emitter writes notification rows. Emission is best-effort and decoupled
// from settlement correctness: failures are logged and swallowed, never
// surfaced to the transition that triggered them.
type Emitter struct {
	DB *gorm.DB
}

// Emit records the event. Never returns an error.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil || e.DB == nil {
		return
	}
	priority := ev.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	relatedURL := ev.RelatedURL
	if relatedURL == nil && ev.RelatedID != nil {
		u := fmt.Sprintf("/requests/%s", ev.RelatedID)
		relatedURL = &u
	}

	var payload datatypes.JSON
	if ev.Data != nil {
		if b, err := json.Marshal(ev.Data); err == nil {
			payload = datatypes.JSON(b)
		}
	}

	n := domain.Notification{
		RecipientID: ev.RecipientID,
		Type:        ev.Type,
		Title:       ev.Title,
		Message:     ev.Message,
		RelatedID:   ev.RelatedID,
		RelatedURL:  relatedURL,
		Priority:    priority,
		Payload:     payload,
	}
	if err := e.DB.WithContext(ctx).Create(&n).Error; err != nil {
		log.Warn().Err(err).Str("type", ev.Type).Str("recipient", ev.RecipientID.String()).
			Msg("notification emit failed")
	}
}

// ListForRecipient returns the recipient's notifications, newest first.
func (e *Emitter) ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	if err := e.DB.WithContext(ctx).Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Limit(100).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead stamps read_at on one of the recipient's notifications.
func (e *Emitter) MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) error {
	res := e.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("notification_id = ? AND recipient_id = ? AND read_at IS NULL", notificationID, recipientID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, notificationID)
	}
	return nil
}
