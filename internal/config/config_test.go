package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.NATSSubject != "statutes.ingest" {
		t.Errorf("NATSSubject = %q", cfg.NATSSubject)
	}
	if cfg.ChunkTokenBudget != 3000 || cfg.ChunkTokenOverlap != 200 {
		t.Errorf("chunking = %d/%d, want 3000/200", cfg.ChunkTokenBudget, cfg.ChunkTokenOverlap)
	}
	if cfg.RetrievalMinTopScore != 0.45 {
		t.Errorf("RetrievalMinTopScore = %v, want 0.45", cfg.RetrievalMinTopScore)
	}
	if cfg.PipelineConfidenceThreshold != 0.85 {
		t.Errorf("PipelineConfidenceThreshold = %v, want 0.85", cfg.PipelineConfidenceThreshold)
	}
	if cfg.SegmentMaxProvisionNumber != 550 {
		t.Errorf("SegmentMaxProvisionNumber = %d, want 550", cfg.SegmentMaxProvisionNumber)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("GRADE_CONCURRENCY", "8")
	t.Setenv("PIPELINE_CONFIDENCE_THRESHOLD", "0.7")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Errorf("APIPort = %q, want 9999", cfg.APIPort)
	}
	if cfg.GradeConcurrency != 8 {
		t.Errorf("GradeConcurrency = %d, want 8", cfg.GradeConcurrency)
	}
	if cfg.PipelineConfidenceThreshold != 0.7 {
		t.Errorf("PipelineConfidenceThreshold = %v, want 0.7", cfg.PipelineConfidenceThreshold)
	}
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("GRADE_CONCURRENCY", "many")
	t.Setenv("RETRIEVAL_MIN_TOP_SCORE", "high")

	cfg := Load()
	if cfg.GradeConcurrency != 4 {
		t.Errorf("GradeConcurrency = %d, want fallback 4", cfg.GradeConcurrency)
	}
	if cfg.RetrievalMinTopScore != 0.45 {
		t.Errorf("RetrievalMinTopScore = %v, want fallback 0.45", cfg.RetrievalMinTopScore)
	}
}
