package extraction

import (
	"fmt"
	"time"

	apperrors "github.com/feyti/medreport/pkg/errors"
)

// Assembler runs every extractor over a report and builds a StructuredReport.
type Assembler struct {
	now func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the clock used for ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler using the UTC wall clock.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Now returns the time the assembler stamps on reports.
func (a *Assembler) Now() time.Time {
	return a.now()
}

// Process extracts every field from text. It never returns a partial report:
// a failure in any extractor yields an internal error and a nil report.
func (a *Assembler) Process(text string) (report *StructuredReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = apperrors.NewInternalError("failed to process report", fmt.Errorf("extraction panic: %v", r))
		}
	}()

	return &StructuredReport{
		Drug:            ExtractDrugName(text),
		AdverseEvents:   ExtractAdverseEvents(text),
		Severity:        DetermineSeverity(text),
		Outcome:         DetermineOutcome(text),
		PatientInfo:     ExtractPatientInfo(text),
		Diagnoses:       ExtractDiagnoses(text),
		Medications:     ExtractMedications(text),
		Symptoms:        ExtractSymptoms(text),
		Procedures:      ExtractProcedures(text),
		LabResults:      ExtractLabResults(text),
		KeyFindings:     ExtractKeyFindings(text),
		Recommendations: ExtractRecommendations(text),
		Summary:         GenerateSummary(text),
		TextHash:        GenerateTextHash(text),
		ProcessedAt:     a.now(),
	}, nil
}
