package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document records metadata for a file stored in the object store.
// The object key is namespaced under the owning tenant.
type Document struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    string         `json:"tenant_id" gorm:"type:uuid;index;not null"`
	StudentID   *string        `json:"student_id,omitempty" gorm:"type:uuid;index"`
	AdmissionID *string        `json:"admission_id,omitempty" gorm:"type:uuid;index"`
	ObjectKey   string         `json:"object_key" gorm:"type:varchar(255);not null"`
	FileName    string         `json:"file_name" gorm:"type:varchar(255);not null"`
	ContentType string         `json:"content_type" gorm:"type:varchar(100)"`
	Size        int64          `json:"size"`
	UploadedBy  string         `json:"uploaded_by" gorm:"type:uuid"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
