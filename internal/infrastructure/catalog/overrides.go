package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

type overrideFile struct {
	Chapters map[string]domain.DocumentDescriptor `yaml:"chapters"`
}

// LoadOverrides merges a YAML chapter map over the built-in table, so a
// deployment can add or correct statutes without a rebuild. A missing
// path is not an error; a malformed file is.
func (c *Catalog) LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read catalog overrides: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse catalog overrides: %w", err)
	}

	for chapter, desc := range file.Chapters {
		if desc.CitationLabel == "" {
			desc.CitationLabel = "Art."
		}
		if desc.LabelKind == "" {
			desc.LabelKind = "article"
		}
		c.byChapter[chapter] = desc
	}
	return nil
}
