package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student status values.
const (
	StudentStatusEnrolled    = "enrolled"
	StudentStatusGraduated   = "graduated"
	StudentStatusTransferred = "transferred"
	StudentStatusWithdrawn   = "withdrawn"
)

// Student represents an enrolled student record, scoped to one tenant
type Student struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    string         `json:"tenant_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_students_tenant_admission"`
	AdmissionNo string         `json:"admission_no" gorm:"type:varchar(30);not null;uniqueIndex:idx_students_tenant_admission"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(60);not null"`
	LastName    string         `json:"last_name" gorm:"type:varchar(60);not null"`
	DateOfBirth *time.Time     `json:"date_of_birth,omitempty"`
	Class       string         `json:"class" gorm:"type:varchar(20)"`
	Section     string         `json:"section" gorm:"type:varchar(10)"`
	Email       string         `json:"email,omitempty" gorm:"type:varchar(100)"`
	Phone       string         `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'enrolled'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Guardians []Guardian `json:"guardians,omitempty" gorm:"foreignKey:StudentID"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Guardian represents a parent or guardian contact for a student
type Guardian struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:uuid;index;not null"`
	StudentID string         `json:"student_id" gorm:"type:uuid;index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(120);not null"`
	Relation  string         `json:"relation" gorm:"type:varchar(30)"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Email     string         `json:"email,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
