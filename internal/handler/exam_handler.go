package handler

import (
	"errors"
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

// ExamHandler serves exam scheduling and results
type ExamHandler struct {
	db *gorm.DB
}

// NewExamHandler creates an ExamHandler
func NewExamHandler(db *gorm.DB) *ExamHandler {
	return &ExamHandler{db: db}
}

// Create schedules an exam for a class
func (h *ExamHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)

	var req struct {
		Name     string    `json:"name"`
		Class    string    `json:"class"`
		Subject  string    `json:"subject"`
		ExamDate time.Time `json:"exam_date"`
		MaxMarks int       `json:"max_marks"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	fields := map[string]string{}
	requireField(fields, "name", req.Name)
	requireField(fields, "class", req.Class)
	requireField(fields, "subject", req.Subject)
	maxLen(fields, "name", req.Name, 100)
	maxLen(fields, "subject", req.Subject, 60)
	if req.MaxMarks <= 0 {
		fields["max_marks"] = "must be a positive number"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	exam := model.Exam{
		TenantID: t.ID,
		Name:     req.Name,
		Class:    req.Class,
		Subject:  req.Subject,
		ExamDate: req.ExamDate,
		MaxMarks: req.MaxMarks,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Create(&exam).Error
	})
	if err != nil {
		log.Error("Failed to create exam", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create exam"})
	}

	return c.JSON(http.StatusCreated, exam)
}

// List returns the tenant's exams, optionally filtered by class
func (h *ExamHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var exams []model.Exam
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		q := tx.Order("exam_date DESC")
		if class := c.QueryParam("class"); class != "" {
			q = q.Where("class = ?", class)
		}
		return q.Find(&exams).Error
	})
	if err != nil {
		log.Error("Failed to list exams", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list exams"})
	}

	return c.JSON(http.StatusOK, echo.Map{"exams": exams})
}

// Delete removes a scheduled exam and its results
func (h *ExamHandler) Delete(c echo.Context) error {
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", id).Delete(&model.ExamResult{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Exam{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exam not found"})
	}

	return c.NoContent(http.StatusNoContent)
}

// RecordResult stores a student's marks for an exam
func (h *ExamHandler) RecordResult(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	examID := c.Param("id")

	var req struct {
		StudentID string `json:"student_id"`
		Marks     int    `json:"marks"`
		Grade     string `json:"grade,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.StudentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": map[string]string{"student_id": "is required"}})
	}

	var result model.ExamResult
	var conflict string
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		var exam model.Exam
		if err := tx.Where("id = ?", examID).First(&exam).Error; err != nil {
			return err
		}
		if req.Marks < 0 || req.Marks > exam.MaxMarks {
			conflict = "marks out of range for this exam"
			return gorm.ErrInvalidData
		}
		var student model.Student
		if err := tx.Where("id = ?", req.StudentID).First(&student).Error; err != nil {
			return err
		}

		result = model.ExamResult{
			TenantID:  t.ID,
			ExamID:    examID,
			StudentID: req.StudentID,
			Marks:     req.Marks,
			Grade:     req.Grade,
		}
		return tx.Create(&result).Error
	})
	if conflict != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": conflict})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exam or student not found"})
	}
	if err != nil {
		// remaining failure mode is the unique exam/student index
		log.Warn("Failed to record exam result", zap.String("exam_id", examID), zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "result already recorded for this student"})
	}

	return c.JSON(http.StatusCreated, result)
}

// ListResults returns the recorded results for an exam
func (h *ExamHandler) ListResults(c echo.Context) error {
	t := middleware.TenantFrom(c)
	examID := c.Param("id")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var results []model.ExamResult
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Where("exam_id = ?", examID).Find(&results).Error
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list results"})
	}

	return c.JSON(http.StatusOK, echo.Map{"results": results})
}
