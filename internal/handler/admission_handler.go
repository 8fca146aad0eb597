package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/badurubalaji/msls-sub015/internal/middleware"
	"github.com/badurubalaji/msls-sub015/internal/model"
	"github.com/badurubalaji/msls-sub015/pkg/database"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
	"github.com/badurubalaji/msls-sub015/pkg/mailer"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

// AdmissionHandler serves the admission application workflow
type AdmissionHandler struct {
	db   *gorm.DB
	mail *mailer.Mailer
}

// NewAdmissionHandler creates an AdmissionHandler
func NewAdmissionHandler(db *gorm.DB, mail *mailer.Mailer) *AdmissionHandler {
	return &AdmissionHandler{db: db, mail: mail}
}

// Submit files a new admission application for the tenant school. This
// route is public per tenant; the tenant comes from the URL slug.
func (h *AdmissionHandler) Submit(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)

	var req struct {
		ApplicantName string `json:"applicant_name"`
		GuardianName  string `json:"guardian_name"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		DesiredClass  string `json:"desired_class"`
		AcademicYear  string `json:"academic_year"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]string{}
	requireField(fields, "applicant_name", req.ApplicantName)
	requireField(fields, "email", req.Email)
	requireField(fields, "desired_class", req.DesiredClass)
	requireField(fields, "academic_year", req.AcademicYear)
	maxLen(fields, "applicant_name", req.ApplicantName, 120)
	maxLen(fields, "guardian_name", req.GuardianName, 120)
	matchPattern(fields, "email", req.Email, emailPattern, "must be a valid email address")
	matchPattern(fields, "phone", req.Phone, phonePattern, "must be a valid phone number")
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	admission := model.Admission{
		TenantID:      t.ID,
		ApplicantName: req.ApplicantName,
		GuardianName:  req.GuardianName,
		Email:         req.Email,
		Phone:         req.Phone,
		DesiredClass:  req.DesiredClass,
		AcademicYear:  req.AcademicYear,
		Status:        model.AdmissionStatusSubmitted,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Create(&admission).Error
	})
	if err != nil {
		log.Error("Failed to create admission application", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to submit application"})
	}

	log.Info("Admission application submitted", zap.String("admission_id", admission.ID))
	return c.JSON(http.StatusCreated, admission)
}

// List returns the tenant's admission applications, optionally filtered
// by status
func (h *AdmissionHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var admissions []model.Admission
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		q := tx.Order("created_at DESC")
		if status := c.QueryParam("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		return q.Find(&admissions).Error
	})
	if err != nil {
		log.Error("Failed to list admissions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list admissions"})
	}

	return c.JSON(http.StatusOK, echo.Map{"admissions": admissions})
}

// Get returns a single admission application
func (h *AdmissionHandler) Get(c echo.Context) error {
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var admission model.Admission
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&admission).Error
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admission not found"})
	}

	return c.JSON(http.StatusOK, admission)
}

// Review moves a submitted application into review
func (h *AdmissionHandler) Review(c echo.Context) error {
	return h.transition(c, model.AdmissionStatusUnderReview, "")
}

// Decide accepts or rejects an application and notifies the applicant
func (h *AdmissionHandler) Decide(c echo.Context) error {
	var req struct {
		Decision string `json:"decision"`
		Note     string `json:"note,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Decision != model.AdmissionStatusAccepted && req.Decision != model.AdmissionStatusRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be accepted or rejected"})
	}
	return h.transition(c, req.Decision, req.Note)
}

func (h *AdmissionHandler) transition(c echo.Context, status, note string) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("update")(time.Now())
	var admission model.Admission
	var invalid bool
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&admission).Error; err != nil {
			return err
		}
		if !admission.CanTransitionTo(status) {
			invalid = true
			return gorm.ErrInvalidData
		}
		admission.Status = status
		admission.DecisionNote = note
		if status == model.AdmissionStatusAccepted || status == model.AdmissionStatusRejected {
			now := time.Now()
			admission.DecidedAt = &now
		}
		return tx.Save(&admission).Error
	})
	if invalid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition", "status": admission.Status})
	}
	if err != nil {
		log.Warn("Admission transition failed", zap.String("admission_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admission not found"})
	}

	if status == model.AdmissionStatusAccepted || status == model.AdmissionStatusRejected {
		prometheus.RecordAdmissionDecision(status)
		// Notification failure never fails the decision
		if h.mail != nil {
			_ = h.mail.SendAdmissionDecision(&admission, t.Name)
		}
	}

	log.Info("Admission transitioned",
		zap.String("admission_id", admission.ID),
		zap.String("status", status))
	return c.JSON(http.StatusOK, admission)
}

// Enroll converts an accepted application into a student record
func (h *AdmissionHandler) Enroll(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	var req struct {
		AdmissionNo string `json:"admission_no"`
		Section     string `json:"section,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.AdmissionNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": map[string]string{"admission_no": "is required"}})
	}

	var student model.Student
	var conflict string
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		var admission model.Admission
		if err := tx.Where("id = ?", id).First(&admission).Error; err != nil {
			return err
		}
		if admission.Status != model.AdmissionStatusAccepted {
			conflict = "only accepted applications can be enrolled"
			return gorm.ErrInvalidData
		}
		if admission.StudentID != nil {
			conflict = "application already enrolled"
			return gorm.ErrInvalidData
		}

		first, last := splitName(admission.ApplicantName)
		student = model.Student{
			TenantID:    t.ID,
			AdmissionNo: req.AdmissionNo,
			FirstName:   first,
			LastName:    last,
			Class:       admission.DesiredClass,
			Section:     req.Section,
			Email:       admission.Email,
			Phone:       admission.Phone,
			Status:      model.StudentStatusEnrolled,
		}
		if err := tx.Create(&student).Error; err != nil {
			return err
		}
		return tx.Model(&admission).Update("student_id", student.ID).Error
	})
	if conflict != "" {
		return c.JSON(http.StatusConflict, echo.Map{"error": conflict})
	}
	if err != nil {
		log.Warn("Enrollment failed", zap.String("admission_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admission not found"})
	}

	log.Info("Admission enrolled",
		zap.String("admission_id", id),
		zap.String("student_id", student.ID))
	return c.JSON(http.StatusCreated, student)
}
