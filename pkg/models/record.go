package models

import "time"

// Sentinel is the placeholder value for a field no heuristic matched.
const Sentinel = "N/A"

// Record is the fixed-schema result of extracting semantic fields from a
// certificate. Fields default to Sentinel and a Record is never mutated
// after extraction completes.
type Record struct {
	UniversityName string `json:"university_name"`
	HolderName     string `json:"certificate_holder_name"`
	Course         string `json:"course"`
	Grade          string `json:"grade"`
	RollNo         string `json:"roll_no"`
	CertificateID  string `json:"certificate_id"`

	// ExtractedAt is when the extraction completed. Not part of the
	// persisted schema.
	ExtractedAt time.Time `json:"extracted_at,omitempty"`
}

// NewRecord returns a record with every field set to Sentinel.
func NewRecord() Record {
	return Record{
		UniversityName: Sentinel,
		HolderName:     Sentinel,
		Course:         Sentinel,
		Grade:          Sentinel,
		RollNo:         Sentinel,
		CertificateID:  Sentinel,
	}
}

// FieldNames returns the persisted column names in their fixed order.
// The order is part of the tabular log schema and must not change.
func FieldNames() []string {
	return []string{
		"University Name",
		"Certificate Holder Name",
		"Course",
		"Grade",
		"Roll No",
		"Certificate ID",
	}
}

// Row returns the record's values in FieldNames order.
func (r Record) Row() []string {
	return []string{
		r.UniversityName,
		r.HolderName,
		r.Course,
		r.Grade,
		r.RollNo,
		r.CertificateID,
	}
}

// IsComplete reports whether every field was matched by some heuristic.
func (r Record) IsComplete() bool {
	for _, v := range r.Row() {
		if v == Sentinel {
			return false
		}
	}
	return true
}
