// Package catalog resolves an ingested filename to the citation identity
// of the statute it contains. Resolution is a pure lookup: chapter number
// to descriptor, decided once per document before segmentation.
package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

var (
	chapterPrefixRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[-.]?\s*(.+)`)
	subsidiaryRe    = regexp.MustCompile(`SUBSIDIARY\s+LEGISLATION\s+(\d+)\s+(\d+)`)
)

type Catalog struct {
	byChapter map[string]domain.DocumentDescriptor
}

func New() *Catalog {
	return &Catalog{byChapter: builtinChapters()}
}

// Resolve maps a filename to its document descriptor. Unknown inputs fall
// back to the Commercial Code, the corpus the original collection was
// built around.
func (c *Catalog) Resolve(filename string) domain.DocumentDescriptor {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stemUpper := strings.ToUpper(stem)

	if m := chapterPrefixRe.FindStringSubmatch(stem); m != nil {
		chapter := m[1]
		if desc, ok := c.lookupChapter(chapter); ok {
			return desc
		}
	}

	if strings.Contains(stemUpper, "COMPANIES ACT") {
		if desc, ok := c.byChapter["386"]; ok {
			return desc
		}
	}

	if m := subsidiaryRe.FindStringSubmatch(stemUpper); m != nil {
		cap, _ := strconv.Atoi(m[1])
		sub, _ := strconv.Atoi(m[2])
		key := fmt.Sprintf("%d.%02d", cap, sub)
		if desc, ok := c.byChapter[key]; ok {
			return desc
		}
		return domain.DocumentDescriptor{
			Title:         fmt.Sprintf("S.L. %d.%02d", cap, sub),
			DocCode:       fmt.Sprintf("sl_%d_%02d", cap, sub),
			CitationLabel: "Reg.",
			LabelKind:     "regulation",
		}
	}

	return c.byChapter["13"]
}

// lookupChapter tries the exact chapter first, then the parent chapter
// for sub-numbered inputs like "123.27". Subsidiary legislation (a
// dotted chapter) is cited as regulations rather than articles.
func (c *Catalog) lookupChapter(chapter string) (domain.DocumentDescriptor, bool) {
	if desc, ok := c.byChapter[chapter]; ok {
		return desc, true
	}
	if dot := strings.Index(chapter, "."); dot > 0 {
		parent := chapter[:dot]
		if desc, ok := c.byChapter[parent]; ok {
			desc.Title = fmt.Sprintf("S.L. %s", chapter)
			desc.DocCode = "sl_" + strings.ReplaceAll(chapter, ".", "_")
			desc.CitationLabel = "Reg."
			desc.LabelKind = "regulation"
			desc.Overview = ""
			return desc, true
		}
	}
	return domain.DocumentDescriptor{}, false
}

func builtinChapters() map[string]domain.DocumentDescriptor {
	return map[string]domain.DocumentDescriptor{
		"12": {
			Title: "Code of Organization and Civil Procedure (Cap. 12)", DocCode: "code_12",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"13": {
			Title: "Commercial Code (Cap. 13)", DocCode: "code_13",
			CitationLabel: "Art.", LabelKind: "article",
			Overview:      "Commercial Code (Cap. 13): primary commercial law governing traders, acts of trade, bills of exchange, commercial transactions, bankruptcy, and commercial disputes.",
		},
		"16": {
			Title: "Civil Code (Cap. 16)", DocCode: "code_16",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"55": {
			Title: "Notarial Profession and Notarial Archives Act (Cap. 55)", DocCode: "notarial_act",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"56": {
			Title: "Public Registry Act (Cap. 56)", DocCode: "public_registry",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"123": {
			Title: "Income Tax Act (Cap. 123)", DocCode: "income_tax_act",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"296": {
			Title: "Land Registration Act (Cap. 296)", DocCode: "land_registration",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"364": {
			Title: "Duty on Documents and Transfers Act (Cap. 364)", DocCode: "duty_act",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"372": {
			Title: "Income Tax Management Act (Cap. 372)", DocCode: "income_tax_mgmt",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"373": {
			Title: "Prevention of Money Laundering Act (Cap. 373)", DocCode: "money_laundering",
			CitationLabel: "Art.", LabelKind: "article",
		},
		"386": {
			Title: "Companies Act (Cap. 386)", DocCode: "companies_act",
			CitationLabel: "Art.", LabelKind: "article",
			Overview:      "Companies Act (Cap. 386): governs company formation, governance, directors' duties, share capital, distributions, beneficial ownership, and company records.",
		},
		"604": {
			Title: "Private Residential Leases Act (Cap. 604)", DocCode: "residential_leases",
			CitationLabel: "Art.", LabelKind: "article",
		},
	}
}
