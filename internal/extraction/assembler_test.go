package extraction

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/feyti/medreport/pkg/errors"
)

const janeSmithReport = "Patient Name: Jane Smith\nAge: 32\nGender: Female\nDiagnosis: Severe hypertension\nTaking Lisinopril daily"

func TestAssembler_Process(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewAssembler(WithClock(func() time.Time { return fixed }))

	report, err := a.Process(janeSmithReport)
	require.NoError(t, err)

	assert.Contains(t, report.Drug, "Lisinopril")
	assert.Equal(t, SeveritySevere, report.Severity)
	assert.Equal(t, OutcomeUnknown, report.Outcome)
	assert.Contains(t, report.AdverseEvents, "hypertension")
	assert.Equal(t, "Jane Smith", report.PatientInfo[PatientName])
	assert.Equal(t, "32", report.PatientInfo[PatientAge])
	assert.Equal(t, "Female", report.PatientInfo[PatientGender])

	require.Len(t, report.Diagnoses, 1)
	assert.Equal(t, "Severe hypertension", report.Diagnoses[0].Text)
	assert.Equal(t, "Diagnosis: Severe hypertension", report.Summary)
	assert.Equal(t, GenerateTextHash(janeSmithReport), report.TextHash)
	assert.Equal(t, fixed, report.ProcessedAt)
}

func TestAssembler_EmptyTextUsesSentinels(t *testing.T) {
	report, err := NewAssembler().Process("")
	require.NoError(t, err)

	assert.Equal(t, UnknownDrug, report.Drug)
	assert.Equal(t, []string{UnknownSymptoms}, report.AdverseEvents)
	assert.Equal(t, SeverityUnknown, report.Severity)
	assert.Equal(t, OutcomeUnknown, report.Outcome)
	assert.Empty(t, report.PatientInfo)
	assert.Empty(t, report.Summary)
	assert.False(t, report.ProcessedAt.IsZero())
}

func TestAssembler_RecoversFromPanic(t *testing.T) {
	a := NewAssembler(WithClock(func() time.Time { panic("clock broke") }))

	report, err := a.Process(janeSmithReport)

	assert.Nil(t, report)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "clock broke")
}

func TestGenerateSummary(t *testing.T) {
	t.Run("relevant lines", func(t *testing.T) {
		text := "Short plan\n" +
			"The diagnosis was confirmed by biopsy\n" +
			"findings were consistent with the results\n" +
			"Treatment will begin with medication soon\n" +
			"Plan to follow up in a month with results"

		assert.Equal(t,
			"The diagnosis was confirmed by biopsy findings were consistent with the results Treatment will begin with medication soon",
			GenerateSummary(text))
	})

	t.Run("falls back to leading lines", func(t *testing.T) {
		text := "Line one here\n\n  Line two  \nLine three\nLine four"
		assert.Equal(t, "Line one here Line two Line three", GenerateSummary(text))
	})
}

func TestGenerateTextHash(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", GenerateTextHash(""))
	assert.Equal(t, GenerateTextHash(janeSmithReport), GenerateTextHash(janeSmithReport))
	assert.Len(t, GenerateTextHash(janeSmithReport), 32)
}

func TestGenerateTextHash_SingleCharacterMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	alphabet := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 .,:\n")

	for i := 0; i < 500; i++ {
		original := []rune(randomText(rng, alphabet, 1+rng.Intn(300)))
		mutated := append([]rune(nil), original...)

		pos := rng.Intn(len(mutated))
		for mutated[pos] == original[pos] {
			mutated[pos] = alphabet[rng.Intn(len(alphabet))]
		}

		assert.NotEqual(t, GenerateTextHash(string(original)), GenerateTextHash(string(mutated)))
	}
}
