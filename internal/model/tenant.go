package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant status values. Only active tenants may be worked against.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusPending   = "pending"
	TenantStatusArchived  = "archived"
)

// Tenant represents one isolated school account. Every scoped row in the
// database carries this tenant's ID and is fenced by row-level security.
type Tenant struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Slug      string         `json:"slug" gorm:"type:varchar(60);uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Status    string         `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Features  FeatureList    `json:"features" gorm:"type:jsonb"`
	Settings  string         `json:"settings,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// IsActive reports whether the tenant may be worked against
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// HasFeature reports whether the named capability is enabled for the tenant
func (t *Tenant) HasFeature(name string) bool {
	for _, f := range t.Features {
		if f == name {
			return true
		}
	}
	return false
}

// FeatureList is a set of enabled feature names stored as a jsonb array
type FeatureList []string

// Value implements driver.Valuer for jsonb storage
func (f FeatureList) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for jsonb storage
func (f *FeatureList) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported type for FeatureList")
	}
	return json.Unmarshal(b, f)
}
