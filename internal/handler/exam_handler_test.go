package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordResultUnknownExamReturnsNotFound(t *testing.T) {
	db, mock := mockDB(t)
	h := NewExamHandler(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "exams"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	c, rec := tenantContext(t, http.MethodPost, `{"student_id":"s-1","marks":80}`)
	c.SetParamNames("id")
	c.SetParamValues("e-1")

	require.NoError(t, h.RecordResult(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "exam or student not found", body["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResultDuplicateReturnsConflict(t *testing.T) {
	db, mock := mockDB(t)
	h := NewExamHandler(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "exams"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "max_marks"}).
			AddRow("e-1", "t-1", 100))
	mock.ExpectQuery(`SELECT (.+) FROM "students"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).
			AddRow("s-1", "t-1"))
	mock.ExpectQuery(`INSERT INTO "exam_results"`).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "idx_exam_results_exam_student"`))
	mock.ExpectRollback()

	c, rec := tenantContext(t, http.MethodPost, `{"student_id":"s-1","marks":80}`)
	c.SetParamNames("id")
	c.SetParamValues("e-1")

	require.NoError(t, h.RecordResult(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordResultRejectsMarksOutOfRange(t *testing.T) {
	db, mock := mockDB(t)
	h := NewExamHandler(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT set_config").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "exams"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "max_marks"}).
			AddRow("e-1", "t-1", 50))
	mock.ExpectRollback()

	c, rec := tenantContext(t, http.MethodPost, `{"student_id":"s-1","marks":80}`)
	c.SetParamNames("id")
	c.SetParamValues("e-1")

	require.NoError(t, h.RecordResult(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "marks out of range for this exam", body["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
