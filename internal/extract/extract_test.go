package extract

import (
	"reflect"
	"testing"

	"certverify/internal/ocr"
	"certverify/pkg/models"
)

func spansFromLines(lines []string) []ocr.Span {
	spans := make([]ocr.Span, len(lines))
	for i, line := range lines {
		spans[i] = ocr.Span{Text: line, Confidence: 0.9}
	}
	return spans
}

func TestExtractFullCertificate(t *testing.T) {
	spans := spansFromLines([]string{
		"XYZ University of Technology",
		"presents this certificate to",
		"John Doe",
		"for successfully completed the course of Machine Learning authorized by XYZ with Grade A",
		"Roll Number: 12345",
		"Certificate ID: CERT-99",
	})

	record := Extract(spans)

	if got, want := record.UniversityName, "XYZ University of Technology"; got != want {
		t.Errorf("UniversityName = %q, want %q", got, want)
	}
	if got, want := record.HolderName, "John Doe"; got != want {
		t.Errorf("HolderName = %q, want %q", got, want)
	}
	if got, want := record.Course, "Machine Learning"; got != want {
		t.Errorf("Course = %q, want %q", got, want)
	}
	if got, want := record.Grade, "A"; got != want {
		t.Errorf("Grade = %q, want %q", got, want)
	}
	if got, want := record.RollNo, "12345"; got != want {
		t.Errorf("RollNo = %q, want %q", got, want)
	}
	if got, want := record.CertificateID, "CERT-99"; got != want {
		t.Errorf("CertificateID = %q, want %q", got, want)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	for _, spans := range [][]ocr.Span{nil, {}, spansFromLines([]string{"", "   "})} {
		record := Extract(spans)
		for i, value := range record.Row() {
			if value != models.Sentinel {
				t.Errorf("field %d = %q, want sentinel", i, value)
			}
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	spans := spansFromLines([]string{
		"ABC Institute",
		"of Technology",
		"Jane Smith",
		"completed the course of Data Science with Grade B",
	})

	first := Extract(spans)
	second := Extract(spans)

	// ExtractedAt differs between runs; the persisted row must not.
	if !reflect.DeepEqual(first.Row(), second.Row()) {
		t.Errorf("repeated extraction differs: %v vs %v", first.Row(), second.Row())
	}
}

func TestScanNamesContinuation(t *testing.T) {
	tests := []struct {
		name            string
		lines           []string
		wantInstitution string
		wantHolder      string
	}{
		{
			name: "two continuation lines joined",
			lines: []string{
				"National Institute",
				"of Science",
				"and Technology",
				"Alok Kumar Sharma",
			},
			wantInstitution: "National Institute of Science and Technology",
			wantHolder:      "Alok Kumar Sharma",
		},
		{
			name: "long line stops continuation",
			lines: []string{
				"ABC University",
				"of the applied arts and crafts and letters",
				"Jane Doe",
			},
			wantInstitution: "ABC University",
			wantHolder:      "Jane Doe",
		},
		{
			name: "short line without keyword stops continuation",
			lines: []string{
				"ABC University",
				"Jane Doe",
			},
			wantInstitution: "ABC University",
			wantHolder:      "Jane Doe",
		},
		{
			name: "continuation window is two lines",
			lines: []string{
				"ABC Institute",
				"of Arts",
				"of Letters",
				"of Music",
				"Jane Doe",
			},
			wantInstitution: "ABC Institute of Arts of Letters",
			wantHolder:      "Jane Doe",
		},
		{
			name: "no institution keyword still finds holder",
			lines: []string{
				"presents this certificate to",
				"Jane Doe",
			},
			wantInstitution: "",
			wantHolder:      "Jane Doe",
		},
		{
			name:            "empty input",
			lines:           nil,
			wantInstitution: "",
			wantHolder:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			institution, holder := scanNames(tt.lines)
			if institution != tt.wantInstitution {
				t.Errorf("institution = %q, want %q", institution, tt.wantInstitution)
			}
			if holder != tt.wantHolder {
				t.Errorf("holder = %q, want %q", holder, tt.wantHolder)
			}
		})
	}
}

func TestIsHolderLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"John Doe", true},
		{"Alok Kumar Sharma", true},
		{"John", false},                         // single word
		{"presents this certificate to", false}, // not title case
		{"Roll Number", false},                  // exclusion keyword
		{"Certificate ID", false},               // "id" substring
		{"Course Completion", false},            // exclusion keyword
		{"Successfully Completed By", false},    // exclusion keyword
	}

	for _, tt := range tests {
		if got := isHolderLine(tt.line); got != tt.want {
			t.Errorf("isHolderLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestMatchRollNo(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"Roll Number: 12345", "12345", true},
		{"roll no 98-B/7", "98-B/7", true},
		{"ROLL NUMBER JUT2024-54321", "JUT2024-54321", true},
		{"no labels here", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchRollNo(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MatchRollNo(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMatchCertificateID(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"Certificate ID: CERT-99", "CERT-99", true},
		{"cert id PV-JKH-87234", "PV-JKH-87234", true},
		{"ID: X1", "X1", true},
		{"nothing to see", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchCertificateID(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MatchCertificateID(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMatchGrade(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"with Grade A", "A", true},
		{"Grade - B", "B", true},
		{"grade: S", "S", true},
		{"no grading here", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchGrade(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MatchGrade(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMatchCourse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "between course-of and authorized-by",
			text:   "completed the course of Machine Learning authorized by XYZ",
			want:   "Machine Learning",
			wantOK: true,
		},
		{
			name:   "between course-of and with-grade",
			text:   "completed the course of Deep Learning with Grade A",
			want:   "Deep Learning",
			wantOK: true,
		},
		{
			name:   "boilerplate stripped",
			text:   "completed the course of Neural Networks an online non-credit course authorized by DeepLearning.AI",
			want:   "Neural Networks",
			wantOK: true,
		},
		{
			name:   "second boilerplate variant stripped",
			text:   "completed the course of Statistics a non-credit course with Grade B",
			want:   "Statistics",
			wantOK: true,
		},
		{
			name:   "fallback after course-of",
			text:   "finished the course of Web Development",
			want:   "Web Development",
			wantOK: true,
		},
		{
			name:   "no course phrasing",
			text:   "this text mentions nothing relevant",
			want:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchCourse(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MatchCourse(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHeuristicsIndependent(t *testing.T) {
	// Only a roll number is present; every other heuristic must still
	// complete and leave its sentinel.
	record := Extract(spansFromLines([]string{"roll no 42"}))

	if record.RollNo != "42" {
		t.Errorf("RollNo = %q, want %q", record.RollNo, "42")
	}
	if record.UniversityName != models.Sentinel {
		t.Errorf("UniversityName = %q, want sentinel", record.UniversityName)
	}
	if record.Course != models.Sentinel {
		t.Errorf("Course = %q, want sentinel", record.Course)
	}
}
