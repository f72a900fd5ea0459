// Package extraction turns free-text medical reports into structured fields
// using ordered regular-expression rules and keyword tiers. Every function in
// this package is pure and safe for concurrent use.
package extraction

import "time"

// Sentinels returned when nothing matched.
const (
	UnknownDrug     = "Unknown Drug"
	UnknownSymptoms = "unknown symptoms"
)

// FieldKind classifies an ExtractedField.
type FieldKind string

const (
	KindDiagnosis      FieldKind = "diagnosis"
	KindMedication     FieldKind = "medication"
	KindSymptom        FieldKind = "symptom"
	KindProcedure      FieldKind = "procedure"
	KindLab            FieldKind = "lab"
	KindFinding        FieldKind = "finding"
	KindRecommendation FieldKind = "recommendation"
)

// Severity is the coarse severity of a report.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityMild     Severity = "mild"
	SeverityUnknown  Severity = "unknown"
)

// Outcome is the patient outcome stated in a report.
type Outcome string

const (
	OutcomeRecovered Outcome = "recovered"
	OutcomeFatal     Outcome = "fatal"
	OutcomeOngoing   Outcome = "ongoing"
	OutcomeUnknown   Outcome = "unknown"
)

// ExtractedField is a single finding located in the raw text. Start and End
// are byte offsets of the whole rule match.
type ExtractedField struct {
	Text       string    `json:"text"`
	Kind       FieldKind `json:"type"`
	Start      int       `json:"start_pos"`
	End        int       `json:"end_pos"`
	Confidence float64   `json:"confidence"`
}

// Patient info keys.
const (
	PatientName        = "name"
	PatientAge         = "age"
	PatientGender      = "gender"
	PatientDateOfBirth = "date_of_birth"
)

// PatientInfo holds demographics found in the text. Missing keys mean the
// value was not found.
type PatientInfo map[string]string

// Lab result keys.
const (
	LabBloodPressure = "blood_pressure"
	LabTemperature   = "temperature"
	LabHeartRate     = "heart_rate"
	LabWeight        = "weight"
	LabHeight        = "height"
	LabBMI           = "bmi"
)

// LabResults maps lab keys to the raw matched value.
type LabResults map[string]string

// StructuredReport is the assembled output of one extraction run.
type StructuredReport struct {
	Drug            string           `json:"drug"`
	AdverseEvents   []string         `json:"adverse_events"`
	Severity        Severity         `json:"severity"`
	Outcome         Outcome          `json:"outcome"`
	PatientInfo     PatientInfo      `json:"patient_info"`
	Diagnoses       []ExtractedField `json:"diagnoses"`
	Medications     []ExtractedField `json:"medications"`
	Symptoms        []ExtractedField `json:"symptoms"`
	Procedures      []ExtractedField `json:"procedures"`
	LabResults      LabResults       `json:"lab_results"`
	KeyFindings     []ExtractedField `json:"key_findings"`
	Recommendations []ExtractedField `json:"recommendations"`
	Summary         string           `json:"summary"`
	TextHash        string           `json:"text_hash"`
	ProcessedAt     time.Time        `json:"processed_at"`
}
