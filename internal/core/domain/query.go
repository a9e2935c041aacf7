package domain

type QueryType string

const (
	QueryArticleLookup QueryType = "article_lookup"
	QueryGeneral       QueryType = "general"
)

type QueryIntent string

const (
	IntentDefinition  QueryIntent = "definition"
	IntentProcedure   QueryIntent = "procedure"
	IntentPenalty     QueryIntent = "penalty"
	IntentRequirement QueryIntent = "requirement"
	IntentTiming      QueryIntent = "timing"
	IntentNone        QueryIntent = "none"
)

// QueryAnalysis is the deterministic classification of a free-text
// question. DocHintExplicit distinguishes a named statute (safe to
// hard-filter on) from a topical guess (expansion hint only).
type QueryAnalysis struct {
	Type            QueryType   `json:"type"`
	Intent          QueryIntent `json:"intent"`
	ProvisionRef    string      `json:"provision_ref,omitempty"`
	DocHint         string      `json:"doc_hint,omitempty"`
	DocHintExplicit bool        `json:"doc_hint_explicit"`
	Keywords        []string    `json:"keywords,omitempty"`
}
