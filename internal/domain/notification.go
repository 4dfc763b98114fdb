package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is one fire-and-forget event emitted on a status-changing
// transition. Delivery (email, push) is an external collaborator; this row is
// the handoff point, and failing to write it never fails the transition.
type Notification struct {
	NotificationID uuid.UUID      `gorm:"column:notification_id;type:uuid;primaryKey" json:"notification_id"`
	RecipientID    uuid.UUID      `gorm:"column:recipient_id;type:uuid;not null;index" json:"recipient_id"`
	Type           string         `gorm:"column:type;type:varchar(40);not null" json:"type"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Message        string         `gorm:"column:message;not null" json:"message"`
	RelatedID      *uuid.UUID     `gorm:"column:related_id;type:uuid" json:"related_id"`
	RelatedURL     *string        `gorm:"column:related_url" json:"related_url"`
	Priority       string         `gorm:"column:priority;type:varchar(10);not null;default:normal" json:"priority"`
	Payload        datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	ReadAt         *time.Time     `gorm:"column:read_at" json:"read_at"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func (Notification) TableName() string {
	return "Notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	return nil
}
