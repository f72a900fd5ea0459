package extraction

import (
	"regexp"
	"strings"
)

// Drug name rules, tried in order.
var (
	drugLiteralPattern  = regexp.MustCompile(`Drug\s+[A-Z]`)
	capitalizedPattern  = regexp.MustCompile(`[A-Z][a-z]+[ \t]*(?:[A-Z][a-z]*)*[ \t]*\d*`)
	administeredPattern = regexp.MustCompile(`(?i)(?:taking|using|administered)\s+([A-Za-z]+[ \t]*[A-Za-z]*)`)

	// Labels whose values belong to the patient, diagnosis and lab extractors.
	ownedLabelLine = regexp.MustCompile(`(?i)^\s*(?:patient(?:\s+name)?|name|age|gender|sex|dob|date\s+of\s+birth|born|` +
		`(?:primary\s+|secondary\s+)?diagnosis|diagnosed\s+with|condition|` +
		`blood\s+pressure|temperature|heart\s+rate|weight|height|bmi)\s*:`)
	// Any other "Label: value" line; only the value is scanned.
	labelledLine = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z ()/-]{0,40}:(.*)$`)
)

// adverseEventVocabulary is the closed set of reportable adverse events.
var adverseEventVocabulary = []string{
	"nausea", "headache", "dizziness", "rash", "fever", "pain",
	"vomiting", "diarrhea", "fatigue", "insomnia", "anxiety",
	"hypertension", "hypotension", "tachycardia", "bradycardia",
}

var (
	adverseEventPattern   = vocabularyPattern(adverseEventVocabulary)
	adverseContextPattern = regexp.MustCompile(`(?i)(?:experienced|reported|symptoms of|including)\s+([^.,]+)`)
)

// keywordTier is one precedence level of a classifier.
type keywordTier struct {
	label    string
	keywords []string
}

var severityTiers = []keywordTier{
	{label: string(SeveritySevere), keywords: []string{"severe", "critical", "life-threatening", "emergency"}},
	{label: string(SeverityModerate), keywords: []string{"moderate", "medium", "significant"}},
	{label: string(SeverityMild), keywords: []string{"mild", "minor", "slight"}},
}

var outcomeTiers = []keywordTier{
	{label: string(OutcomeRecovered), keywords: []string{"recovered", "improved", "resolved", "discharged"}},
	{label: string(OutcomeFatal), keywords: []string{"fatal", "died", "death", "deceased"}},
	{label: string(OutcomeOngoing), keywords: []string{"ongoing", "continuing", "persistent", "current"}},
}

var patientRules = []keyedRule{
	{key: PatientName, pattern: regexp.MustCompile(`(?i)Patient Name:?[ \t]*(?:\r?\n[ \t]*)?([A-Za-z \t]+)`)},
	{key: PatientName, pattern: regexp.MustCompile(`(?i)\bName:?[ \t]*(?:\r?\n[ \t]*)?([A-Za-z \t]+)`)},
	{key: PatientName, pattern: regexp.MustCompile(`(?i)\bPatient:?[ \t]*(?:\r?\n[ \t]*)?([A-Za-z \t]+)`)},

	{key: PatientAge, pattern: regexp.MustCompile(`(?i)\bAge:?\s*(\d+)`)},
	{key: PatientAge, pattern: regexp.MustCompile(`(?i)(\d+)\s*years?\s*old`)},
	{key: PatientAge, pattern: regexp.MustCompile(`(?i)(\d+)\s*y/?o\b`)},

	{key: PatientGender, pattern: regexp.MustCompile(`(?i)\bGender:?\s*(Male|Female|M|F)\b`)},
	{key: PatientGender, pattern: regexp.MustCompile(`(?i)\bSex:?\s*(Male|Female|M|F)\b`)},

	{key: PatientDateOfBirth, pattern: regexp.MustCompile(`(?i)\bDOB:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
	{key: PatientDateOfBirth, pattern: regexp.MustCompile(`(?i)Date of Birth:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
	{key: PatientDateOfBirth, pattern: regexp.MustCompile(`(?i)\bBorn:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
}

var labRules = []keyedRule{
	{key: LabBloodPressure, pattern: regexp.MustCompile(`(?i)Blood Pressure:?\s*(\d+/\d+)`)},
	{key: LabTemperature, pattern: regexp.MustCompile(`(?i)Temperature:?\s*(\d+\.?\d*)`)},
	{key: LabHeartRate, pattern: regexp.MustCompile(`(?i)Heart Rate:?\s*(\d+)`)},
	{key: LabWeight, pattern: regexp.MustCompile(`(?i)Weight:?\s*(\d+\.?\d*)`)},
	{key: LabHeight, pattern: regexp.MustCompile(`(?i)Height:?\s*(\d+\.?\d*)`)},
	{key: LabBMI, pattern: regexp.MustCompile(`(?i)BMI:?\s*(\d+\.?\d*)`)},
}

var diagnosisRules = labelledRules(KindDiagnosis, 0.8, 3,
	"Diagnosis", "Diagnosed with", "Condition", "Primary Diagnosis", "Secondary Diagnosis")

var medicationRules = append(
	labelledRules(KindMedication, 0.7, 0, "Medications?", "Prescribed", "Taking", "Rx"),
	vocabularyRules(KindMedication, 0.9,
		"aspirin", "ibuprofen", "acetaminophen", "metformin", "lisinopril",
		"atorvastatin", "omeprazole", "amlodipine", "levothyroxine", "albuterol")...,
)

var symptomRules = append(
	labelledRules(KindSymptom, 0.7, 0, "Symptoms?", "Complaints?", "Presenting with", "Chief Complaint"),
	vocabularyRules(KindSymptom, 0.8,
		"fever", "cough", "headache", "nausea", "vomiting", "diarrhea",
		"fatigue", "dizziness", "chest pain", "shortness of breath",
		"abdominal pain", "back pain", "joint pain", "rash")...,
)

var procedureRules = labelledRules(KindProcedure, 0.8, 0, "Procedure", "Surgery", "Operation", "Treatment")

var findingRules = labelledRules(KindFinding, 0.8, 10, "Findings?", "Results?", "Impression", "Assessment")

var recommendationRules = labelledRules(KindRecommendation, 0.8, 5,
	"Recommendations?", "Plan", "Follow[- ]?up", "Next Steps?")

// summaryKeywords mark a line as clinically relevant for the summary.
var summaryKeywords = []string{
	"diagnosis", "diagnosed", "condition", "symptoms", "treatment",
	"medication", "prescribed", "findings", "results", "impression",
	"recommendation", "plan", "follow-up",
}

// labelledRules builds "Label: value up to the end of the sentence" rules.
// Labels are regular-expression fragments.
func labelledRules(kind FieldKind, confidence float64, minLen int, labels ...string) []fieldRule {
	rules := make([]fieldRule, 0, len(labels))
	for _, label := range labels {
		rules = append(rules, fieldRule{
			kind:       kind,
			pattern:    regexp.MustCompile(`(?i)` + label + `:?\s*([^.\n]+)`),
			confidence: confidence,
			minLen:     minLen,
		})
	}
	return rules
}

// vocabularyRules builds whole-word rules for known terms; the match itself
// is the extracted text.
func vocabularyRules(kind FieldKind, confidence float64, terms ...string) []fieldRule {
	rules := make([]fieldRule, 0, len(terms))
	for _, term := range terms {
		rules = append(rules, fieldRule{
			kind:       kind,
			pattern:    regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			confidence: confidence,
			wholeMatch: true,
		})
	}
	return rules
}

func vocabularyPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
