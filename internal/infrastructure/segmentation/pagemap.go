package segmentation

import (
	"regexp"
	"sort"
	"strconv"
)

var pageMarkerRe = regexp.MustCompile(`(?i)---\s*PAGE\s*(\d+)\s*---`)

type pageMarker struct {
	offset int
	page   int
}

// pageIndex maps byte offsets to page numbers via the literal
// "--- PAGE N ---" markers, kept in ascending offset order.
type pageIndex []pageMarker

func buildPageIndex(text string) pageIndex {
	matches := pageMarkerRe.FindAllStringSubmatchIndex(text, -1)
	idx := make(pageIndex, 0, len(matches))
	for _, m := range matches {
		page, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		idx = append(idx, pageMarker{offset: m[0], page: page})
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i].offset < idx[j].offset })
	return idx
}

// pageAt returns the page of the last marker at or before offset, or 1
// when the document carries no markers.
func (p pageIndex) pageAt(offset int) int {
	if len(p) == 0 {
		return 1
	}
	// First marker strictly after offset; the one before it wins.
	i := sort.Search(len(p), func(i int) bool { return p[i].offset > offset })
	if i == 0 {
		return p[0].page
	}
	return p[i-1].page
}

func (p pageIndex) offsets() []int {
	out := make([]int, len(p))
	for i, m := range p {
		out[i] = m.offset
	}
	return out
}
