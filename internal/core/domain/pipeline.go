package domain

type GradeLevel string

const (
	GradeRelevant   GradeLevel = "RELEVANT"
	GradeIrrelevant GradeLevel = "IRRELEVANT"
	GradePartial    GradeLevel = "PARTIAL"
)

// InsufficientEvidenceAnswer is returned verbatim when grading leaves no
// usable evidence. The generation call is skipped in that case.
const InsufficientEvidenceAnswer = "Insufficient information in the retrieved provisions to answer this question."

// DocumentGrade is the relevance verdict for one retrieved candidate.
// Confidence is a fixed prior per grade level, not an oracle number.
type DocumentGrade struct {
	CandidateID string     `json:"candidate_id"`
	Grade       GradeLevel `json:"grade"`
	Confidence  float64    `json:"confidence"`
	Rationale   string     `json:"rationale,omitempty"`
}

// ValidationResult is the outcome of checking a generated answer against
// its evidence. Confidence is already capped by CitationAccuracy: the
// oracle's self-assessment is never trusted on its own.
type ValidationResult struct {
	Grounded         bool     `json:"grounded"`
	Confidence       float64  `json:"confidence"`
	Issues           []string `json:"issues"`
	CitationAccuracy float64  `json:"citation_accuracy"`
}

// OracleValidation is the raw, parsed oracle self-report before the
// citation accuracy cap is applied.
type OracleValidation struct {
	Grounded   bool
	Confidence float64
	Issues     []string
}

// PipelineResponse is the terminal artifact of one question. Grades and
// Validation form the audit trail and are always populated, whatever the
// outcome.
type PipelineResponse struct {
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	Confidence float64              `json:"confidence"`
	Grounded   bool                 `json:"grounded"`
	Sources    []RetrievedCandidate `json:"sources"`
	Validation ValidationResult     `json:"validation"`
	Grades     []DocumentGrade      `json:"grades"`
}
