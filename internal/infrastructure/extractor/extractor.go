package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
	"github.com/lexatlas/statute-crag/internal/core/ports"
)

// Router picks the extractor by mime type, falling back to the file
// extension when the upload did not declare one.
type Router struct {
	pdf   ports.TextExtractor
	plain ports.TextExtractor
}

func NewRouter(pdf, plain ports.TextExtractor) *Router {
	return &Router{pdf: pdf, plain: plain}
}

func (r *Router) Extract(ctx context.Context, doc *domain.StatuteDocument) (string, error) {
	if isPDF(doc) {
		return r.pdf.Extract(ctx, doc)
	}
	return r.plain.Extract(ctx, doc)
}

func isPDF(doc *domain.StatuteDocument) bool {
	if strings.EqualFold(doc.MimeType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.Filename), ".pdf")
}
