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
	"github.com/badurubalaji/msls-sub015/pkg/objectstore"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

const presignExpiry = 15 * time.Minute

// DocumentHandler serves document upload and retrieval backed by the
// object store
type DocumentHandler struct {
	db    *gorm.DB
	store *objectstore.Store
}

// NewDocumentHandler creates a DocumentHandler
func NewDocumentHandler(db *gorm.DB, store *objectstore.Store) *DocumentHandler {
	return &DocumentHandler{db: db, store: store}
}

// Upload stores a multipart file in the object store and records its
// metadata. Optional student_id/admission_id form fields attach the
// document to a record.
func (h *DocumentHandler) Upload(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	sess := middleware.SessionFrom(c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": map[string]string{"file": "is required"}})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer src.Close()

	doc := model.Document{
		TenantID:    t.ID,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		UploadedBy:  sess.UserID,
	}
	if v := c.FormValue("student_id"); v != "" {
		doc.StudentID = &v
	}
	if v := c.FormValue("admission_id"); v != "" {
		doc.AdmissionID = &v
	}

	err = database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		doc.ObjectKey = objectstore.ObjectKey(t.ID, doc.ID, doc.FileName)
		return tx.Model(&doc).Update("object_key", doc.ObjectKey).Error
	})
	if err != nil {
		log.Error("Failed to record document", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	if err := h.store.Put(c.Request().Context(), doc.ObjectKey, src, file.Size, doc.ContentType); err != nil {
		log.Error("Failed to store object", zap.String("key", doc.ObjectKey), zap.Error(err))
		// roll the metadata back so no orphan record points at a missing object
		_ = database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
			return tx.Unscoped().Delete(&doc).Error
		})
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	prometheus.DocumentUploadCounter.Inc()
	log.Info("Document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("key", doc.ObjectKey))
	return c.JSON(http.StatusCreated, doc)
}

// List returns the tenant's documents, optionally filtered by student
func (h *DocumentHandler) List(c echo.Context) error {
	t := middleware.TenantFrom(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var docs []model.Document
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		q := tx.Order("created_at DESC")
		if studentID := c.QueryParam("student_id"); studentID != "" {
			q = q.Where("student_id = ?", studentID)
		}
		return q.Find(&docs).Error
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list documents"})
	}

	return c.JSON(http.StatusOK, echo.Map{"documents": docs})
}

// Download returns a presigned, time-limited URL for a document
func (h *DocumentHandler) Download(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	var doc model.Document
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).First(&doc).Error
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	url, err := h.store.PresignedGet(c.Request().Context(), doc.ObjectKey, presignExpiry)
	if err != nil {
		log.Error("Failed to presign document", zap.String("key", doc.ObjectKey), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "download failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url, "expires_in": presignExpiry.String()})
}

// Delete removes a document and its stored object
func (h *DocumentHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	t := middleware.TenantFrom(c)
	id := c.Param("id")

	var doc model.Document
	err := database.WithTenant(h.db, t.ID, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			return err
		}
		return tx.Delete(&doc).Error
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
	}

	if err := h.store.Remove(c.Request().Context(), doc.ObjectKey); err != nil {
		log.Warn("Failed to remove stored object", zap.String("key", doc.ObjectKey), zap.Error(err))
	}

	return c.NoContent(http.StatusNoContent)
}
