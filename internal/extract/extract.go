// Package extract turns located certificate text into the fixed six-field
// record.
//
// Two kinds of heuristics are applied. The institution and holder names are
// positional: their wording varies too much for stable patterns, so a
// linear scan over the span lines with explicit stop conditions finds them.
// Course, grade, roll number and certificate ID follow stable label
// phrasing in the source documents and are matched by independent regular
// expressions over the full joined text.
//
// Every heuristic runs independently: a field that finds no match is left
// at the sentinel and never blocks the others. An empty span sequence
// yields an all-sentinel record without error.
package extract

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"certverify/internal/ocr"
	"certverify/pkg/models"
)

const (
	// maxContinuationLines bounds how many lines after the institution
	// keyword line are examined as name continuations.
	maxContinuationLines = 2

	// maxContinuationWords is the longest a line may be and still count as
	// a continuation of the institution name.
	maxContinuationWords = 4
)

// institutionKeywords mark the start of the institution name.
var institutionKeywords = []string{"Institute", "University", "Technology"}

// continuationKeywords must appear (case-insensitively) in a short line for
// it to be joined onto the institution name.
var continuationKeywords = []string{"of", "technology"}

// holderExclusions disqualify a line from being the holder name.
var holderExclusions = []string{"course", "roll", "id", "successfully"}

var (
	rollNoPattern        = regexp.MustCompile(`(?i)(?:Roll\s*Number|Roll\s*No)\s*[:\s]*(\S+)`)
	certificateIDPattern = regexp.MustCompile(`(?i)(?:Certificate\s*ID|Cert\s*ID|ID\s*)\s*[:\s]*(\S+)`)
	gradePattern         = regexp.MustCompile(`(?i)(?:Grade\s*[-\s:]*|with\s*Grade\s*[-\s:]*)\s*(\S)`)
	coursePattern        = regexp.MustCompile(`(?is)completed the course of\s*(.*?)\s*(?:authorized by|with Grade)`)
	courseFallback       = regexp.MustCompile(`(?i)course of\s*([A-Z0-9\s]+)`)
	courseBoilerplate    = regexp.MustCompile(`(?i)(?:an\s+online\s+non-credit\s+course|a\s+non-credit\s+course)`)
)

// Extract populates a record from the ordered span sequence. Only the text
// and its scan order matter; the regions are consumed upstream.
func Extract(spans []ocr.Span) models.Record {
	record := models.NewRecord()

	lines := make([]string, 0, len(spans))
	for _, span := range spans {
		if text := strings.TrimSpace(span.Text); text != "" {
			lines = append(lines, text)
		}
	}
	allText := strings.Join(lines, " ")

	institution, holder := scanNames(lines)
	if institution != "" {
		record.UniversityName = institution
	}
	if holder != "" {
		record.HolderName = holder
	}

	if v, ok := MatchRollNo(allText); ok {
		record.RollNo = v
	}
	if v, ok := MatchCertificateID(allText); ok {
		record.CertificateID = v
	}
	if v, ok := MatchGrade(allText); ok {
		record.Grade = v
	}
	if v, ok := MatchCourse(allText); ok {
		record.Course = v
	}

	record.ExtractedAt = time.Now()
	return record
}

// scanState names the stages of the positional name scan.
type scanState int

const (
	seekingInstitution scanState = iota
	confirmingContinuation
	seekingHolder
	scanDone
)

// scanNames runs the positional scan for the institution and holder names.
// The cursor is threaded explicitly between stages: the holder search
// resumes at the first line not consumed by the institution name, which may
// be the very line that stopped the continuation.
func scanNames(lines []string) (institution, holder string) {
	state := seekingInstitution
	var parts []string
	continuationEnd := -1

	i := 0
	for state != scanDone {
		if i >= len(lines) {
			if state == seekingInstitution && len(lines) > 0 {
				// No keyword line anywhere; the holder scan still runs,
				// from the top of the sequence.
				state = seekingHolder
				i = 0
				continue
			}
			break
		}
		line := lines[i]
		switch state {
		case seekingInstitution:
			if containsAny(line, institutionKeywords) {
				parts = append(parts, line)
				continuationEnd = i + maxContinuationLines
				state = confirmingContinuation
			}
			i++

		case confirmingContinuation:
			if i <= continuationEnd && isContinuation(line) {
				parts = append(parts, line)
				i++
				continue
			}
			// The stopping line is not consumed: it is the first
			// candidate for the holder name.
			state = seekingHolder

		case seekingHolder:
			if isHolderLine(line) {
				holder = line
				state = scanDone
			}
			i++
		}
	}

	return strings.TrimSpace(strings.Join(parts, " ")), holder
}

// isContinuation reports whether a line extends the institution name: at
// most four words and one of the continuation keywords present.
func isContinuation(line string) bool {
	if len(strings.Fields(line)) > maxContinuationWords {
		return false
	}
	lower := strings.ToLower(line)
	for _, kw := range continuationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isHolderLine reports whether a line looks like a person's name: at least
// two words, title case, and none of the exclusion keywords.
func isHolderLine(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 {
		return false
	}
	lower := strings.ToLower(line)
	for _, kw := range holderExclusions {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, word := range words {
		first := []rune(word)[0]
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

func containsAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// MatchRollNo finds the token following a "Roll Number"/"Roll No" label.
func MatchRollNo(text string) (string, bool) {
	return firstGroup(rollNoPattern, text)
}

// MatchCertificateID finds the token following a "Certificate ID"/"Cert
// ID"/"ID" label.
func MatchCertificateID(text string) (string, bool) {
	return firstGroup(certificateIDPattern, text)
}

// MatchGrade finds the single character following a "Grade" label,
// optionally preceded by "with".
func MatchGrade(text string) (string, bool) {
	return firstGroup(gradePattern, text)
}

// MatchCourse extracts the course title between "completed the course of"
// and the next section, stripping known boilerplate phrases. When the
// primary pattern fails, a looser fallback captures letters, digits and
// spaces after "course of".
func MatchCourse(text string) (string, bool) {
	if m := coursePattern.FindStringSubmatch(text); m != nil {
		course := strings.TrimSpace(courseBoilerplate.ReplaceAllString(m[1], ""))
		if course != "" {
			return course, true
		}
	}
	if m := courseFallback.FindStringSubmatch(text); m != nil {
		if course := strings.TrimSpace(m[1]); course != "" {
			return course, true
		}
	}
	return "", false
}

func firstGroup(pattern *regexp.Regexp, text string) (string, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}
