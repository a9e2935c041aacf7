package extractor

import (
	"context"
	"testing"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

type extractorStub struct {
	text  string
	calls int
}

func (s *extractorStub) Extract(context.Context, *domain.StatuteDocument) (string, error) {
	s.calls++
	return s.text, nil
}

func TestRouterRoutesByMimeAndExtension(t *testing.T) {
	tests := []struct {
		name     string
		doc      domain.StatuteDocument
		wantText string
	}{
		{"pdf mime", domain.StatuteDocument{MimeType: "application/pdf", Filename: "code.bin"}, "pdf"},
		{"pdf extension", domain.StatuteDocument{MimeType: "application/octet-stream", Filename: "code.PDF"}, "pdf"},
		{"plain text", domain.StatuteDocument{MimeType: "text/plain", Filename: "code.txt"}, "plain"},
		{"unknown", domain.StatuteDocument{Filename: "code"}, "plain"},
	}
	for _, tt := range tests {
		pdf := &extractorStub{text: "pdf"}
		plain := &extractorStub{text: "plain"}
		router := NewRouter(pdf, plain)

		text, err := router.Extract(context.Background(), &tt.doc)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if text != tt.wantText {
			t.Errorf("%s: routed to %q, want %q", tt.name, text, tt.wantText)
		}
	}
}
