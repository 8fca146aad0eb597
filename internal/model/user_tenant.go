package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold within a tenant.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStaff   = "staff"
)

// UserTenant represents the association between users and tenants.
// This enables multi-tenancy by allowing users to belong to multiple tenants,
// each membership carrying its own role and permission grants.
type UserTenant struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"type:uuid;index;not null"`
	TenantID    string         `json:"tenant_id" gorm:"type:uuid;index;not null"`
	Role        string         `json:"role" gorm:"type:varchar(50);not null;default:'staff'"`
	Permissions StringList     `json:"permissions" gorm:"type:jsonb"`
	IsDefault   bool           `json:"is_default" gorm:"default:false"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// StringList is a jsonb-stored list of strings (permission names)
type StringList []string

// Value implements driver.Valuer for jsonb storage
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for jsonb storage
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported type for StringList")
	}
	return json.Unmarshal(b, s)
}
