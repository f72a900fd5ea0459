package extraction

import "strings"

// ExtractPatientInfo pulls name, age, gender and date of birth.
func ExtractPatientInfo(text string) PatientInfo {
	return PatientInfo(firstPerKey(text, patientRules, normalizePatientValue))
}

// patientLabelWords are field labels that a loose name rule can capture
// instead of a name.
var patientLabelWords = map[string]bool{
	"name": true, "age": true, "gender": true, "sex": true,
	"dob": true, "date": true, "born": true, "diagnosis": true,
}

func normalizePatientValue(key, value string) (string, bool) {
	if key == PatientName {
		words := strings.Fields(value)
		if len(words) == 0 || patientLabelWords[strings.ToLower(words[0])] {
			return "", false
		}
		return value, true
	}
	if key != PatientGender {
		return value, value != ""
	}
	switch strings.ToUpper(value) {
	case "M", "MALE":
		return "Male", true
	case "F", "FEMALE":
		return "Female", true
	default:
		return "", false
	}
}

// ExtractLabResults pulls vital signs and measurements as raw strings.
func ExtractLabResults(text string) LabResults {
	return LabResults(firstPerKey(text, labRules, nil))
}

func ExtractDiagnoses(text string) []ExtractedField {
	return collect(text, diagnosisRules)
}

// ExtractMedications returns labelled medication mentions followed by
// known-drug vocabulary hits.
func ExtractMedications(text string) []ExtractedField {
	return collect(text, medicationRules)
}

func ExtractSymptoms(text string) []ExtractedField {
	return collect(text, symptomRules)
}

func ExtractProcedures(text string) []ExtractedField {
	return collect(text, procedureRules)
}

func ExtractKeyFindings(text string) []ExtractedField {
	return collect(text, findingRules)
}

func ExtractRecommendations(text string) []ExtractedField {
	return collect(text, recommendationRules)
}
