package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Bio       string    `gorm:"type:varchar(300)" json:"bio"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// Argon2id hash of the pending confirmation code. Empty once the code
	// has been exchanged for tokens (codes are single use).
	ConfirmationHash string `gorm:"type:varchar(255)" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
