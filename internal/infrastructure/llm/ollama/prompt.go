package ollama

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

func buildGradingPrompt(question string, candidate domain.RetrievedCandidate, previewChars int) string {
	content := candidate.Content
	if previewChars > 0 && len(content) > previewChars {
		// Cut on a rune boundary so the preview stays valid UTF-8.
		cut := previewChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	citation := candidate.Citation
	if citation == "" {
		citation = "Unknown"
	}

	return fmt.Sprintf(`You are grading legal documents for relevance to a Malta law question.

Question: %s

Document Content:
[%s]
%s

Does this document directly answer the question about Malta law?
Consider:
1. Is this about Malta jurisdiction (not other countries)?
2. Does it address the specific legal topic asked about?
3. Does it contain information that helps answer the question?

Respond with ONLY ONE WORD: RELEVANT, IRRELEVANT, or PARTIAL

Your response:`, question, citation, content)
}

func buildAnswerPrompt(question string, evidence []domain.RetrievedCandidate) string {
	var docs strings.Builder
	for i, candidate := range evidence {
		citation := candidate.Citation
		if citation == "" {
			citation = fmt.Sprintf("Document %d", i+1)
		}
		fmt.Fprintf(&docs, "\n--- Document %d: %s ---\n%s\n", i+1, citation, candidate.Content)
	}

	return fmt.Sprintf(`You are a legal research assistant for Malta law.

Question: %s

Relevant Documents:
%s

CRITICAL INSTRUCTIONS:
1. Answer ONLY using the provided documents above
2. Cite ALL sources as [Document Title, Article X] or [Document Title, Page Y]
3. If documents don't fully answer the question, say "Based on available documents..."
4. NEVER use general legal knowledge or information not in the documents
5. If you cannot answer from the documents, say "Insufficient information in retrieved documents"
6. Include specific article numbers and exact quotes when possible

Your answer:`, question, docs.String())
}

func buildValidationPrompt(answer string, evidence []domain.RetrievedCandidate) string {
	var docs strings.Builder
	for i, candidate := range evidence {
		citation := candidate.Citation
		if citation == "" {
			citation = fmt.Sprintf("Document %d", i+1)
		}
		fmt.Fprintf(&docs, "\n--- %s ---\n%s\n", citation, candidate.Content)
	}

	return fmt.Sprintf(`Validate this legal answer strictly against source documents.

Source Documents:
%s

Generated Answer:
%s

Validation Checklist:
1. Is every claim in the answer found in the source documents?
2. Do all article citations actually exist in the documents?
3. Do all numbers (fines, percentages, dates) match exactly?
4. Are quotes accurate?
5. Is the jurisdiction (Malta) correct?

Respond in this EXACT format:
GROUNDED: YES or NO
CONFIDENCE: 0.0-1.0
ISSUES: [list specific problems, or write "None"]

Your validation:`, docs.String(), answer)
}
