package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// StatuteDocument is the ingestion-side record for one source text.
// The raw blob lives in object storage; this row tracks its lifecycle.
type StatuteDocument struct {
	ID             string         `json:"id"`
	Filename       string         `json:"filename"`
	MimeType       string         `json:"mime_type"`
	StoragePath    string         `json:"storage_path"`
	Title          string         `json:"title,omitempty"`
	DocCode        string         `json:"doc_code,omitempty"`
	ProvisionCount int            `json:"provision_count,omitempty"`
	ChunkCount     int            `json:"chunk_count,omitempty"`
	Status         DocumentStatus `json:"status"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DocumentDescriptor carries the citation identity of one statute. It is
// resolved once per document by the catalog and passed into segmentation
// and chunking; nothing mutates it mid-run.
type DocumentDescriptor struct {
	Title         string `json:"title" yaml:"title"`
	DocCode       string `json:"doc_code" yaml:"doc_code"`
	CitationLabel string `json:"citation_label" yaml:"citation_label"` // "Art." or "Reg."
	LabelKind     string `json:"label_kind" yaml:"label_kind"`         // "article" or "regulation"
	Overview      string `json:"overview,omitempty" yaml:"overview,omitempty"`
}
