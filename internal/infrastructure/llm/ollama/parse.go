package ollama

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

// Fixed confidence priors per grade verdict. The grader's one-word reply
// carries no usable probability, so the prior stands in for one.
const (
	gradeRelevantConfidence    = 0.95
	gradeIrrelevantConfidence  = 0.90
	gradePartialConfidence     = 0.70
	gradeUnparseableConfidence = 0.50
)

// parseGrade maps a grading reply to a verdict. "IRRELEVANT" contains
// "RELEVANT" as a substring, so it is checked first by exclusion. Any
// reply that names no verdict degrades to a low-confidence PARTIAL.
func parseGrade(response string) (domain.GradeLevel, float64) {
	upper := strings.ToUpper(strings.TrimSpace(response))
	switch {
	case strings.Contains(upper, "RELEVANT") && !strings.Contains(upper, "IRRELEVANT"):
		return domain.GradeRelevant, gradeRelevantConfidence
	case strings.Contains(upper, "IRRELEVANT"):
		return domain.GradeIrrelevant, gradeIrrelevantConfidence
	case strings.Contains(upper, "PARTIAL"):
		return domain.GradePartial, gradePartialConfidence
	default:
		return domain.GradePartial, gradeUnparseableConfidence
	}
}

var confidenceNumberRe = regexp.MustCompile(`(\d+\.?\d*)`)

// parseValidation extracts the three labelled fields from the oracle's
// self-report. Missing or malformed fields fall back to conservative
// defaults rather than erroring: not grounded, confidence 0.5, no issues.
func parseValidation(response string) domain.OracleValidation {
	return domain.OracleValidation{
		Grounded:   parseGrounded(response),
		Confidence: parseConfidence(response),
		Issues:     parseIssues(response),
	}
}

func parseGrounded(response string) bool {
	line, ok := findLabelledLine(response, "GROUNDED:")
	if !ok {
		return false
	}
	return strings.Contains(strings.ToUpper(line), "YES")
}

func parseConfidence(response string) float64 {
	line, ok := findLabelledLine(response, "CONFIDENCE:")
	if !ok {
		return 0.5
	}
	m := confidenceNumberRe.FindString(line)
	if m == "" {
		return 0.5
	}
	value, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0.5
	}
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func parseIssues(response string) []string {
	line, ok := findLabelledLine(response, "ISSUES:")
	if !ok {
		return nil
	}
	_, after, found := strings.Cut(line, ":")
	if !found {
		return nil
	}
	text := strings.TrimSpace(after)
	if text == "" || text == "[]" || strings.Contains(strings.ToUpper(text), "NONE") {
		return nil
	}

	var issues []string
	for _, part := range strings.Split(text, ",") {
		part = strings.Trim(strings.TrimSpace(part), `[]"'`)
		if part != "" {
			issues = append(issues, part)
		}
	}
	return issues
}

func findLabelledLine(response, label string) (string, bool) {
	for _, line := range strings.Split(response, "\n") {
		if strings.Contains(strings.ToUpper(line), label) {
			return line, true
		}
	}
	return "", false
}
