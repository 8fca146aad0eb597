package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform user. A user may belong to several tenants
// through UserTenant memberships; TenantID holds the default tenant.
type User struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255);not null"`
	FirstName string         `json:"first_name" gorm:"type:varchar(60)"`
	LastName  string         `json:"last_name" gorm:"type:varchar(60)"`
	TenantID  *string        `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
