package segmentation

import "regexp"

// OCR noise observed in scanned legislation: running headers such as
// "COMPANIES [CAP. 386] 11", isolated "Cap. 386." lines, bare page-number
// lines, markdown heading artifacts, and hyphenation across line breaks.
// Page markers of the form "--- PAGE N ---" are the only positional ground
// truth for page attribution and must survive every rule here.
var (
	markdownHeadingRe = regexp.MustCompile(`(?m)^[ \t]*##\s+.*$`)
	runningHeaderRe   = regexp.MustCompile(`(?m)^[ \t]*[A-Z][A-Z\s\[\]\.\-]*CAP\.?\s*\d+\]?\s*\d+[ \t]*$`)
	isolatedCapLineRe = regexp.MustCompile(`(?m)^[ \t]*Cap\.\s*\d+\.?[ \t]*$`)
	bareNumberLineRe  = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*$`)
	hyphenBreakRe     = regexp.MustCompile(`(\w)-[ \t]*\n[ \t]*(\w)`)
	blankRunRe        = regexp.MustCompile(`\n{3,}`)
	crlfRe            = regexp.MustCompile(`\r\n?`)
)

// Preclean strips known OCR artifacts without touching page markers.
func Preclean(text string) string {
	out := crlfRe.ReplaceAllString(text, "\n")
	out = markdownHeadingRe.ReplaceAllString(out, "")
	out = runningHeaderRe.ReplaceAllString(out, "")
	out = isolatedCapLineRe.ReplaceAllString(out, "")
	out = bareNumberLineRe.ReplaceAllString(out, "")
	out = hyphenBreakRe.ReplaceAllString(out, "$1$2")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return out
}
