package usecase

import (
	"regexp"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

// Patterns that mark a question as a direct provision lookup rather than
// a semantic query.
var articleRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:article|art\.?|regulation|reg\.?)\s*(\d+[a-z]?)\b`),
	regexp.MustCompile(`(?i)\b(\d+[a-z]?)\s+(?:of|from|in)\s+(?:the\s+)?(?:commercial\s+)?code\b`),
	regexp.MustCompile(`(?i)^\s*(\d+[a-z]?)\s*$`),
}

// Explicit statute mentions are the only hints safe to hard-filter on;
// a named statute cannot be wrong, a topical guess can.
var explicitHints = []struct {
	terms   []string
	docCode string
}{
	{[]string{"companies act", "cap. 386", "cap 386"}, "companies_act"},
	{[]string{"commercial code", "cap. 13", "cap 13"}, "code_13"},
	{[]string{"income tax act", "cap. 123", "cap 123"}, "income_tax_act"},
	{[]string{"civil code", "cap. 16", "cap 16"}, "code_16"},
}

var companyTopicTerms = []string{
	"company", "companies", "shareholder", "director", "distribution", "dividend",
	"solvency", "balance sheet", "capital maintenance", "memorandum", "articles of association",
	"liquidator", "winding up", "company secretary", "beneficial owner",
}

var intentCues = []struct {
	intent domain.QueryIntent
	terms  []string
}{
	{domain.IntentDefinition, []string{"what is", "define", "meaning"}},
	{domain.IntentProcedure, []string{"how to", "procedure", "process"}},
	{domain.IntentPenalty, []string{"penalty", "fine", "punishment"}},
	{domain.IntentRequirement, []string{"requirement", "duty", "obligation"}},
	{domain.IntentTiming, []string{"when", "time limit", "deadline", "period"}},
}

// AnalyzeQuestion classifies a free-text question deterministically: query
// type, intent, explicit provision reference, and document hints.
func AnalyzeQuestion(question string) domain.QueryAnalysis {
	analysis := domain.QueryAnalysis{
		Type:   domain.QueryGeneral,
		Intent: domain.IntentNone,
	}
	lower := strings.ToLower(strings.TrimSpace(question))

	for _, pattern := range articleRefPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			analysis.Type = domain.QueryArticleLookup
			analysis.ProvisionRef = strings.ToUpper(m[1])
			break
		}
	}

	for _, hint := range explicitHints {
		if containsAny(lower, hint.terms) {
			analysis.DocHint = hint.docCode
			analysis.DocHintExplicit = true
			break
		}
	}
	if analysis.DocHint == "" && containsAny(lower, companyTopicTerms) {
		analysis.DocHint = "companies_act"
	}
	if analysis.DocHint == "" && (strings.Contains(lower, "s.l.") || strings.Contains(lower, "subsidiary legislation")) {
		analysis.DocHint = "sl"
	}

	for _, cue := range intentCues {
		if containsAny(lower, cue.terms) {
			analysis.Intent = cue.intent
			break
		}
	}

	analysis.Keywords = extractKeywords(question)
	return analysis
}

// Intent-driven lexical expansion: embeddings under-weight legal register
// words like "shall" and "liable", so the expansion text reinforces them
// before the query reaches the similarity index.
var intentExpansions = map[domain.QueryIntent]string{
	domain.IntentDefinition:  "definition meaning interpret define term construed means",
	domain.IntentProcedure:   "procedure process steps how to application shall apply filing",
	domain.IntentPenalty:     "penalty fine punishment offence liable conviction contravention sanctions",
	domain.IntentRequirement: "requirement duty obligation must shall required compliance",
	domain.IntentTiming:      "time period deadline within days months not later than when",
}

var hintExpansions = map[string]string{
	"companies_act":  "Companies Act Cap. 386",
	"code_13":        "Commercial Code Cap. 13",
	"income_tax_act": "Income Tax Act Cap. 123",
	"code_16":        "Civil Code Cap. 16",
}

// ExpandQuery appends deterministic expansion text to the question. The
// original semantics stay first; expansion only nudges the embedding.
func ExpandQuery(question string, analysis domain.QueryAnalysis) string {
	parts := []string{question}
	if expansion, ok := intentExpansions[analysis.Intent]; ok {
		parts = append(parts, expansion)
	}
	if len(analysis.Keywords) > 0 {
		parts = append(parts, strings.Join(analysis.Keywords, " "))
	}
	if nudge, ok := hintExpansions[analysis.DocHint]; ok {
		parts = append(parts, nudge)
	}
	return strings.Join(parts, " ")
}

var queryStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "what": {}, "who": {},
	"where": {}, "when": {}, "how": {}, "can": {}, "do": {}, "does": {},
	"in": {}, "of": {}, "to": {}, "for": {}, "with": {}, "about": {},
	"malta": {}, "code": {}, "commercial": {},
}

var legalTerms = map[string]struct{}{
	"bankruptcy": {}, "bankrupt": {}, "trader": {}, "bill": {}, "exchange": {},
	"insurance": {}, "marine": {}, "broker": {}, "agent": {}, "fraud": {},
	"penalty": {}, "contract": {}, "obligation": {}, "debt": {},
}

func extractKeywords(question string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,?!")
		if word == "" {
			continue
		}
		_, stop := queryStopwords[word]
		_, legal := legalTerms[word]
		if !stop || legal {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
