package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentRequestValidation(t *testing.T) {
	t.Run("valid request has no field errors", func(t *testing.T) {
		req := studentRequest{
			AdmissionNo: "SPR-0001",
			FirstName:   "Bart",
			LastName:    "Simpson",
			Class:       "4",
			Section:     "A",
			Email:       "bart@springfield.example",
			Phone:       "+1 555 0100",
		}
		assert.Empty(t, req.validate())
	})

	t.Run("missing required fields", func(t *testing.T) {
		fields := (&studentRequest{}).validate()
		assert.Equal(t, "is required", fields["admission_no"])
		assert.Equal(t, "is required", fields["first_name"])
		assert.Equal(t, "is required", fields["last_name"])
		assert.Equal(t, "is required", fields["class"])
	})

	t.Run("max length", func(t *testing.T) {
		req := studentRequest{
			AdmissionNo: strings.Repeat("x", 31),
			FirstName:   strings.Repeat("y", 61),
			LastName:    "Simpson",
			Class:       "4",
		}
		fields := req.validate()
		assert.Equal(t, "must be at most 30 characters", fields["admission_no"])
		assert.Equal(t, "must be at most 60 characters", fields["first_name"])
		assert.NotContains(t, fields, "last_name")
	})

	t.Run("length limits count runes, not bytes", func(t *testing.T) {
		req := studentRequest{
			AdmissionNo: "A-1",
			FirstName:   strings.Repeat("é", 60), // 120 bytes, 60 characters
			LastName:    "Strüßmann",
			Class:       "4",
		}
		assert.Empty(t, req.validate())

		req.FirstName = strings.Repeat("é", 61)
		fields := req.validate()
		assert.Equal(t, "must be at most 60 characters", fields["first_name"])
	})

	t.Run("patterns apply to optional fields only when set", func(t *testing.T) {
		req := studentRequest{AdmissionNo: "A-1", FirstName: "Bart", LastName: "Simpson", Class: "4"}
		assert.Empty(t, req.validate())

		req.Email = "not-an-email"
		req.Phone = "abc"
		fields := req.validate()
		assert.Equal(t, "must be a valid email address", fields["email"])
		assert.Equal(t, "must be a valid phone number", fields["phone"])
	})
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Bart Simpson")
	assert.Equal(t, "Bart", first)
	assert.Equal(t, "Simpson", last)

	first, last = splitName("Milhouse Van Houten")
	assert.Equal(t, "Milhouse Van", first)
	assert.Equal(t, "Houten", last)

	first, last = splitName("Madonna")
	assert.Equal(t, "Madonna", first)
	assert.Equal(t, "", last)

	first, last = splitName("  ")
	assert.Equal(t, "", first)
	assert.Equal(t, "", last)
}
