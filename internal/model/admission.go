package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admission application statuses. Applications move
// submitted -> under_review -> accepted | rejected.
const (
	AdmissionStatusSubmitted   = "submitted"
	AdmissionStatusUnderReview = "under_review"
	AdmissionStatusAccepted    = "accepted"
	AdmissionStatusRejected    = "rejected"
)

// Admission represents an admission application for a tenant school
type Admission struct {
	ID            string         `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      string         `json:"tenant_id" gorm:"type:uuid;index;not null"`
	ApplicantName string         `json:"applicant_name" gorm:"type:varchar(120);not null"`
	GuardianName  string         `json:"guardian_name" gorm:"type:varchar(120)"`
	Email         string         `json:"email" gorm:"type:varchar(100);not null"`
	Phone         string         `json:"phone" gorm:"type:varchar(20)"`
	DesiredClass  string         `json:"desired_class" gorm:"type:varchar(20);not null"`
	AcademicYear  string         `json:"academic_year" gorm:"type:varchar(10);not null"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'submitted'"`
	DecisionNote  string         `json:"decision_note,omitempty" gorm:"type:text"`
	DecidedAt     *time.Time     `json:"decided_at,omitempty"`
	StudentID     *string        `json:"student_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (a *Admission) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// CanTransitionTo reports whether the application may move to the given status
func (a *Admission) CanTransitionTo(status string) bool {
	switch a.Status {
	case AdmissionStatusSubmitted:
		return status == AdmissionStatusUnderReview || status == AdmissionStatusAccepted || status == AdmissionStatusRejected
	case AdmissionStatusUnderReview:
		return status == AdmissionStatusAccepted || status == AdmissionStatusRejected
	default:
		// accepted and rejected are terminal
		return false
	}
}
