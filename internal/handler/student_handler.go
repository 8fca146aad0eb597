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
	"github.com/badurubalaji/msls-sub015/prometheus"
)

// StudentHandler serves student record CRUD
type StudentHandler struct {
	db *gorm.DB
}

// NewStudentHandler creates a StudentHandler
func NewStudentHandler(db *gorm.DB) *StudentHandler {
	return &StudentHandler{db: db}
}

type studentRequest struct {
	AdmissionNo string     `json:"admission_no"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Class       string     `json:"class"`
	Section     string     `json:"section"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
}

// validate surfaces per-field validation errors as human-readable strings
func (r *studentRequest) validate() map[string]string {
	fields := map[string]string{}
	requireField(fields, "admission_no", r.AdmissionNo)
	requireField(fields, "first_name", r.FirstName)
	requireField(fields, "last_name", r.LastName)
	requireField(fields, "class", r.Class)
	maxLen(fields, "admission_no", r.AdmissionNo, 30)
	maxLen(fields, "first_name", r.FirstName, 60)
	maxLen(fields, "last_name", r.LastName, 60)
	maxLen(fields, "class", r.Class, 20)
	maxLen(fields, "section", r.Section, 10)
	matchPattern(fields, "email", r.Email, emailPattern, "must be a valid email address")
	matchPattern(fields, "phone", r.Phone, phonePattern, "must be a valid phone number")
	return fields
}

// Create adds a student record to the current tenant
func (h *StudentHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)

	var req studentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if fields := req.validate(); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	student := model.Student{
		TenantID:    t.ID,
		AdmissionNo: req.AdmissionNo,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Class:       req.Class,
		Section:     req.Section,
		Email:       req.Email,
		Phone:       req.Phone,
		Status:      model.StudentStatusEnrolled,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Create(&student).Error
	})
	if err != nil {
		log.Error("Failed to create student", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "admission number already in use"})
	}

	log.Info("Student created", zap.String("student_id", student.ID))
	return c.JSON(http.StatusCreated, student)
}

// List returns the tenant's students, optionally filtered by class
func (h *StudentHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var students []model.Student
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		q := tx.Order("class, section, last_name")
		if class := c.QueryParam("class"); class != "" {
			q = q.Where("class = ?", class)
		}
		if section := c.QueryParam("section"); section != "" {
			q = q.Where("section = ?", section)
		}
		return q.Find(&students).Error
	})
	if err != nil {
		log.Error("Failed to list students", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list students"})
	}

	return c.JSON(http.StatusOK, echo.Map{"students": students})
}

// Get returns one student with guardians
func (h *StudentHandler) Get(c echo.Context) error {
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var student model.Student
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Preload("Guardians").Where("id = ?", id).First(&student).Error
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	return c.JSON(http.StatusOK, student)
}

// Update modifies a student record
func (h *StudentHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	var req studentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if fields := req.validate(); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var student model.Student
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&student).Error; err != nil {
			return err
		}
		student.AdmissionNo = req.AdmissionNo
		student.FirstName = req.FirstName
		student.LastName = req.LastName
		student.DateOfBirth = req.DateOfBirth
		student.Class = req.Class
		student.Section = req.Section
		student.Email = req.Email
		student.Phone = req.Phone
		return tx.Save(&student).Error
	})
	if err != nil {
		log.Warn("Failed to update student", zap.String("student_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	return c.JSON(http.StatusOK, student)
}

// Delete soft-deletes a student record
func (h *StudentHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Student{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	log.Info("Student deleted", zap.String("student_id", id))
	return c.NoContent(http.StatusNoContent)
}

// AddGuardian attaches a guardian contact to a student
func (h *StudentHandler) AddGuardian(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	studentID := c.Param("id")

	var req struct {
		Name     string `json:"name"`
		Relation string `json:"relation"`
		Phone    string `json:"phone"`
		Email    string `json:"email,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]string{}
	requireField(fields, "name", req.Name)
	maxLen(fields, "name", req.Name, 120)
	matchPattern(fields, "phone", req.Phone, phonePattern, "must be a valid phone number")
	matchPattern(fields, "email", req.Email, emailPattern, "must be a valid email address")
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	guardian := model.Guardian{
		TenantID:  t.ID,
		StudentID: studentID,
		Name:      req.Name,
		Relation:  req.Relation,
		Phone:     req.Phone,
		Email:     req.Email,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		var student model.Student
		if err := tx.Where("id = ?", studentID).First(&student).Error; err != nil {
			return err
		}
		return tx.Create(&guardian).Error
	})
	if err != nil {
		log.Warn("Failed to add guardian", zap.String("student_id", studentID), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	return c.JSON(http.StatusCreated, guardian)
}
