package usecase

import (
	"strings"
	"testing"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

func TestAnalyzeQuestionArticleLookup(t *testing.T) {
	tests := []struct {
		question  string
		provision string
	}{
		{"What does article 45 say?", "45"},
		{"art. 26A", "26A"},
		{"Regulation 12 on distributions", "12"},
		{"reg 7", "7"},
		{"what is in 45 of the commercial code", "45"},
		{"  127  ", "127"},
	}
	for _, tt := range tests {
		analysis := AnalyzeQuestion(tt.question)
		if analysis.Type != domain.QueryArticleLookup {
			t.Errorf("%q: type = %s, want article_lookup", tt.question, analysis.Type)
		}
		if analysis.ProvisionRef != tt.provision {
			t.Errorf("%q: provision = %q, want %q", tt.question, analysis.ProvisionRef, tt.provision)
		}
	}
}

func TestAnalyzeQuestionGeneral(t *testing.T) {
	analysis := AnalyzeQuestion("When is a trader considered bankrupt?")
	if analysis.Type != domain.QueryGeneral {
		t.Fatalf("type = %s, want general", analysis.Type)
	}
	if analysis.ProvisionRef != "" {
		t.Fatalf("provision = %q, want empty", analysis.ProvisionRef)
	}
	if analysis.Intent != domain.IntentTiming {
		t.Fatalf("intent = %s, want timing", analysis.Intent)
	}
}

func TestAnalyzeQuestionExplicitHint(t *testing.T) {
	tests := []struct {
		question string
		docCode  string
	}{
		{"Under the Companies Act, who may wind up a company?", "companies_act"},
		{"What does Cap. 386 require of directors?", "companies_act"},
		{"bankruptcy under the commercial code", "code_13"},
		{"deductions under the Income Tax Act", "income_tax_act"},
		{"servitudes in the Civil Code", "code_16"},
	}
	for _, tt := range tests {
		analysis := AnalyzeQuestion(tt.question)
		if analysis.DocHint != tt.docCode {
			t.Errorf("%q: hint = %q, want %q", tt.question, analysis.DocHint, tt.docCode)
		}
		if !analysis.DocHintExplicit {
			t.Errorf("%q: hint should be explicit", tt.question)
		}
	}
}

func TestAnalyzeQuestionTopicalHintIsNotExplicit(t *testing.T) {
	analysis := AnalyzeQuestion("May a director approve a dividend?")
	if analysis.DocHint != "companies_act" {
		t.Fatalf("hint = %q, want companies_act", analysis.DocHint)
	}
	if analysis.DocHintExplicit {
		t.Fatal("topical hint must not be explicit")
	}
}

func TestAnalyzeQuestionSubsidiaryLegislationHint(t *testing.T) {
	analysis := AnalyzeQuestion("Which subsidiary legislation covers market abuse?")
	if analysis.DocHint != "sl" {
		t.Fatalf("hint = %q, want sl", analysis.DocHint)
	}
	if analysis.DocHintExplicit {
		t.Fatal("sl hint must not be explicit")
	}
}

func TestAnalyzeQuestionIntent(t *testing.T) {
	tests := []struct {
		question string
		intent   domain.QueryIntent
	}{
		{"What is a bill of exchange?", domain.IntentDefinition},
		{"How to register a trademark?", domain.IntentProcedure},
		{"What penalty applies to late filing?", domain.IntentPenalty},
		{"What are the obligations of a broker?", domain.IntentRequirement},
		{"What is the deadline for objections?", domain.IntentDefinition},
		{"The deadline for objections?", domain.IntentTiming},
		{"Tell me about marine insurance.", domain.IntentNone},
	}
	for _, tt := range tests {
		if got := AnalyzeQuestion(tt.question).Intent; got != tt.intent {
			t.Errorf("%q: intent = %s, want %s", tt.question, got, tt.intent)
		}
	}
}

func TestExtractKeywordsDropsStopwordsKeepsLegalTerms(t *testing.T) {
	keywords := extractKeywords("What is the penalty for fraud in the Commercial Code of Malta?")
	joined := strings.Join(keywords, " ")
	for _, want := range []string{"penalty", "fraud"} {
		if !strings.Contains(joined, want) {
			t.Errorf("keywords %v missing %q", keywords, want)
		}
	}
	for _, banned := range []string{"what", "the", "malta", "commercial", "code"} {
		for _, kw := range keywords {
			if kw == banned {
				t.Errorf("keywords %v should not contain stopword %q", keywords, banned)
			}
		}
	}
}

func TestExpandQuery(t *testing.T) {
	analysis := domain.QueryAnalysis{
		Intent:   domain.IntentPenalty,
		DocHint:  "code_13",
		Keywords: []string{"fraud", "trader"},
	}
	expanded := ExpandQuery("What penalty applies to a fraudulent trader?", analysis)

	if !strings.HasPrefix(expanded, "What penalty applies to a fraudulent trader?") {
		t.Fatalf("expansion must keep the question first, got %q", expanded)
	}
	for _, want := range []string{"offence", "fraud trader", "Commercial Code Cap. 13"} {
		if !strings.Contains(expanded, want) {
			t.Errorf("expanded query missing %q: %q", want, expanded)
		}
	}
}

func TestExpandQueryNoSignals(t *testing.T) {
	analysis := domain.QueryAnalysis{Intent: domain.IntentNone}
	if got := ExpandQuery("anything", analysis); got != "anything" {
		t.Fatalf("expanded = %q, want the question unchanged", got)
	}
}
