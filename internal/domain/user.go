package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Platform roles. Role administration itself belongs to the identity provider;
// the backend only reads the role off the session.
const (
	RoleLandlord   = "landlord"
	RoleManager    = "manager"
	RoleBuyer      = "buyer"
	RoleTenant     = "tenant"
	RoleSuperadmin = "superadmin"
)

// User is the account row behind the identity provider. The ledger services
// never authenticate; they trust the (user_id, role) pair from the session.
type User struct {
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Fullname     string         `gorm:"column:fullname;not null" json:"fullname"`
	Email        string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Phone        *string        `gorm:"column:phone" json:"phone"`
	Address      *string        `gorm:"column:address" json:"address"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Role         string         `gorm:"column:role;not null;default:buyer" json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "Users"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// ContactSnapshot is the frozen copy of a party's contact details stored on a
// purchase request or listing at the moment it is created.
type ContactSnapshot struct {
	Name    string  `gorm:"column:name" json:"name"`
	Email   string  `gorm:"column:email" json:"email"`
	Phone   *string `gorm:"column:phone" json:"phone"`
	Address *string `gorm:"column:address" json:"address"`
}

// Snapshot copies the user's current contact details.
func (u *User) Snapshot() ContactSnapshot {
	return ContactSnapshot{
		Name:    u.Fullname,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
	}
}
