package usecase

import (
	"testing"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

func TestExtractCitations(t *testing.T) {
	answer := "A trader who suspends payments [Art. 477, Commercial Code] must notify " +
		"the court [Art. 478, Commercial Code]. See also [1] above."
	citations := ExtractCitations(answer)
	want := []string{"Art. 477, Commercial Code", "Art. 478, Commercial Code"}
	if len(citations) != len(want) {
		t.Fatalf("got %d citations %v, want %d", len(citations), citations, len(want))
	}
	for i := range want {
		if citations[i] != want[i] {
			t.Errorf("citation[%d] = %q, want %q", i, citations[i], want[i])
		}
	}
}

func TestExtractCitationsNone(t *testing.T) {
	if got := ExtractCitations("No brackets here."); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestCitationAccuracyNoCitations(t *testing.T) {
	evidence := []domain.RetrievedCandidate{{Citation: "Art. 45, Commercial Code"}}
	if got := CitationAccuracy("An answer with no citations.", evidence); got != 0.5 {
		t.Fatalf("accuracy = %v, want 0.5", got)
	}
}

func TestCitationAccuracyAllMatch(t *testing.T) {
	evidence := []domain.RetrievedCandidate{
		{Citation: "Art. 477, Commercial Code (Cap. 13)", Provision: "477"},
		{Citation: "Art. 478, Commercial Code (Cap. 13)", Provision: "478"},
	}
	answer := "They must stop trading [Art. 477, Commercial Code] and notify creditors [Article 478]."
	if got := CitationAccuracy(answer, evidence); got != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", got)
	}
}

func TestCitationAccuracyPartialMatch(t *testing.T) {
	evidence := []domain.RetrievedCandidate{
		{Citation: "Art. 477, Commercial Code (Cap. 13)", Provision: "477"},
	}
	answer := "First point [Art. 477, Commercial Code]. Second point [Art. 999, Civil Code]."
	if got := CitationAccuracy(answer, evidence); got != 0.5 {
		t.Fatalf("accuracy = %v, want 0.5", got)
	}
}

func TestCitationAccuracyProvisionLabelMatch(t *testing.T) {
	// No Citation string on the candidate, only the provision label.
	evidence := []domain.RetrievedCandidate{{Provision: "12"}}
	answer := "Distributions are restricted [Regulation 12]."
	if got := CitationAccuracy(answer, evidence); got != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", got)
	}
}

func TestCitationAccuracyCaseInsensitive(t *testing.T) {
	evidence := []domain.RetrievedCandidate{{Citation: "Art. 45, Companies Act (Cap. 386)"}}
	answer := "See [ART. 45, COMPANIES ACT]."
	if got := CitationAccuracy(answer, evidence); got != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", got)
	}
}

func TestCitationAccuracyIgnoresShortBrackets(t *testing.T) {
	// Footnote-style markers like [1] are markup, not citations.
	evidence := []domain.RetrievedCandidate{{Citation: "Art. 45, Commercial Code"}}
	answer := "As held previously [1] [2], see [Art. 45, Commercial Code]."
	if got := CitationAccuracy(answer, evidence); got != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", got)
	}
}
