package ollama

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

func TestBuildGradingPromptTruncatesPreview(t *testing.T) {
	candidate := domain.RetrievedCandidate{
		Citation: "Companies Act, Article 12",
		Content:  strings.Repeat("x", 500),
	}

	prompt := buildGradingPrompt("what are the filing duties", candidate, 100)

	if strings.Contains(prompt, strings.Repeat("x", 101)) {
		t.Fatalf("content not truncated to the preview length")
	}
	if !strings.Contains(prompt, strings.Repeat("x", 100)) {
		t.Fatalf("truncated preview missing from prompt")
	}
}

func TestBuildGradingPromptTruncatesOnRuneBoundary(t *testing.T) {
	// A fine amount in euro: the sign is a three-byte rune. Cutting
	// mid-rune would leave an invalid byte sequence in the prompt.
	content := strings.Repeat("€", 50)
	candidate := domain.RetrievedCandidate{Content: content}

	for previewChars := 1; previewChars <= 8; previewChars++ {
		prompt := buildGradingPrompt("penalty amount", candidate, previewChars)
		if !utf8.ValidString(prompt) {
			t.Fatalf("previewChars=%d produced invalid UTF-8", previewChars)
		}
		if strings.Contains(prompt, "�") {
			t.Fatalf("previewChars=%d produced a replacement rune", previewChars)
		}
	}

	// 4 bytes cuts inside the second euro sign; the preview must fall
	// back to the one complete rune.
	prompt := buildGradingPrompt("penalty amount", candidate, 4)
	if !strings.Contains(prompt, "[Unknown]\n€\n") {
		t.Fatalf("expected a single-rune preview, prompt = %q", prompt)
	}
}

func TestBuildGradingPromptZeroPreviewKeepsContent(t *testing.T) {
	candidate := domain.RetrievedCandidate{Content: "full provision body"}
	prompt := buildGradingPrompt("q", candidate, 0)
	if !strings.Contains(prompt, "full provision body") {
		t.Fatalf("content dropped with preview disabled: %q", prompt)
	}
}
