package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureListRoundTrip(t *testing.T) {
	f := FeatureList{"exams", "documents"}

	v, err := f.Value()
	require.NoError(t, err)
	assert.Equal(t, `["exams","documents"]`, v)

	var out FeatureList
	require.NoError(t, out.Scan([]byte(`["exams","documents"]`)))
	assert.Equal(t, f, out)

	// string input, as some drivers deliver jsonb
	require.NoError(t, out.Scan(`["transport"]`))
	assert.Equal(t, FeatureList{"transport"}, out)

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)

	var empty FeatureList
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTenantHasFeature(t *testing.T) {
	tn := Tenant{Features: FeatureList{"exams"}}
	assert.True(t, tn.HasFeature("exams"))
	assert.False(t, tn.HasFeature("documents"))

	var bare Tenant
	assert.False(t, bare.HasFeature("exams"))
}

func TestTenantIsActive(t *testing.T) {
	assert.True(t, (&Tenant{Status: TenantStatusActive}).IsActive())
	assert.False(t, (&Tenant{Status: TenantStatusSuspended}).IsActive())
	assert.False(t, (&Tenant{}).IsActive())
}

func TestAdmissionTransitions(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{AdmissionStatusSubmitted, AdmissionStatusUnderReview, true},
		{AdmissionStatusSubmitted, AdmissionStatusAccepted, true},
		{AdmissionStatusSubmitted, AdmissionStatusRejected, true},
		{AdmissionStatusUnderReview, AdmissionStatusAccepted, true},
		{AdmissionStatusUnderReview, AdmissionStatusRejected, true},
		{AdmissionStatusUnderReview, AdmissionStatusSubmitted, false},
		{AdmissionStatusAccepted, AdmissionStatusRejected, false},
		{AdmissionStatusRejected, AdmissionStatusUnderReview, false},
		{AdmissionStatusAccepted, AdmissionStatusUnderReview, false},
	}

	for _, tt := range tests {
		a := Admission{Status: tt.from}
		assert.Equal(t, tt.ok, a.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
