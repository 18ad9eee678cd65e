package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssessmentPlainJSON(t *testing.T) {
	assessment, err := parseAssessment(`{"verified": true, "authority": 0.82, "explanation": "established org"}`)
	require.NoError(t, err)

	assert.True(t, assessment.Verified)
	assert.InDelta(t, 0.82, assessment.Authority, 1e-9)
	assert.Equal(t, "established org", assessment.Explanation)
}

func TestParseAssessmentToleratesSurroundingProse(t *testing.T) {
	assessment, err := parseAssessment("Here is my assessment:\n{\"verified\": false, \"authority\": 0.1, \"explanation\": \"unknown\"}\nDone.")
	require.NoError(t, err)

	assert.False(t, assessment.Verified)
	assert.InDelta(t, 0.1, assessment.Authority, 1e-9)
}

func TestParseAssessmentNoJSON(t *testing.T) {
	_, err := parseAssessment("I cannot help with that.")
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.8))
	assert.Equal(t, 0.6, clamp01(0.6))
}
