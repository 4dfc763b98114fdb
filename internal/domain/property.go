package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is the asset behind an offering. Listing pages, photos and
// geocoding live elsewhere; the ledger only needs ownership and a label.
type Property struct {
	PropertyID  uuid.UUID      `gorm:"column:property_id;type:uuid;primaryKey" json:"property_id"`
	LandlordID  uuid.UUID      `gorm:"column:landlord_id;type:uuid;not null;index" json:"landlord_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Address     string         `gorm:"column:address;not null" json:"address"`
	City        string         `gorm:"column:city;not null" json:"city"`
	Country     string         `gorm:"column:country;type:char(2);not null" json:"country"`
	Description *string        `gorm:"column:description" json:"description"`
	ImageURL    *string        `gorm:"column:image_url" json:"image_url"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Property) TableName() string {
	return "Properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == uuid.Nil {
		p.PropertyID = uuid.New()
	}
	return nil
}
