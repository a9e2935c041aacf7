package usecase

import (
	"regexp"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

var citationRe = regexp.MustCompile(`\[([^\]]+)\]`)

// Bracketed fragments shorter than this are treated as markup noise,
// not citations. "Art." alone is four characters.
const minCitationLen = 4

// ExtractCitations returns the bracketed citation strings in an answer,
// in order of appearance, duplicates preserved.
func ExtractCitations(answer string) []string {
	var citations []string
	for _, m := range citationRe.FindAllStringSubmatch(answer, -1) {
		citation := strings.TrimSpace(m[1])
		if len(citation) >= minCitationLen {
			citations = append(citations, citation)
		}
	}
	return citations
}

// CitationAccuracy is the fraction of the answer's citations that match a
// retrieved candidate. Matching is case-insensitive substring containment
// in either direction, against the candidate's citation string or its
// provision label. An answer with no citations scores 0.5: citing nothing
// is suspicious but not provably wrong.
func CitationAccuracy(answer string, evidence []domain.RetrievedCandidate) float64 {
	citations := ExtractCitations(answer)
	if len(citations) == 0 {
		return 0.5
	}

	var acceptable []string
	for _, candidate := range evidence {
		if candidate.Citation != "" {
			acceptable = append(acceptable, strings.ToLower(candidate.Citation))
		}
		if candidate.Provision != "" {
			acceptable = append(acceptable, strings.ToLower("article "+candidate.Provision))
			acceptable = append(acceptable, strings.ToLower("regulation "+candidate.Provision))
		}
	}

	matched := 0
	for _, citation := range citations {
		needle := strings.ToLower(citation)
		for _, reference := range acceptable {
			if strings.Contains(reference, needle) || strings.Contains(needle, reference) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(citations))
}
