package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Exam represents a scheduled examination for a class, scoped to one tenant
type Exam struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:uuid;index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Class     string         `json:"class" gorm:"type:varchar(20);not null"`
	Subject   string         `json:"subject" gorm:"type:varchar(60);not null"`
	ExamDate  time.Time      `json:"exam_date"`
	MaxMarks  int            `json:"max_marks" gorm:"not null;default:100"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// ExamResult records a student's marks for one exam
type ExamResult struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:uuid;index;not null"`
	ExamID    string         `json:"exam_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_exam_results_exam_student"`
	StudentID string         `json:"student_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_exam_results_exam_student"`
	Marks     int            `json:"marks" gorm:"not null"`
	Grade     string         `json:"grade" gorm:"type:varchar(5)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
