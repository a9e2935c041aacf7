package segmentation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

const orderEpsilon = 1e-6

// Heading candidates: an integer label, optional single uppercase suffix,
// a period, then whitespace or line end. The strict form is anchored at
// line start; the loose form matches anywhere and is only consulted when
// the strict pass clearly under-segments.
var (
	strictHeadingRe = regexp.MustCompile(`(?m)^[\t \x{00A0}]*([0-9]{1,4}[A-Z]?)\s*\.(?:\s|$)`)
	looseHeadingRe  = regexp.MustCompile(`([0-9]{1,4}[A-Z]?)\s*\.`)
	labelRe         = regexp.MustCompile(`^(0*)(\d+)([A-Z]?)$`)
)

type Config struct {
	// MaxOrderKey is the sanity ceiling for decoded provision numbers;
	// anything above it is OCR noise or a cross-reference, not a heading.
	MaxOrderKey float64
	// FallbackCharsPerProvision calibrates the under-segmentation check:
	// the loose pass runs when the strict pass finds fewer than
	// len(text)/FallbackCharsPerProvision provisions.
	FallbackCharsPerProvision int
}

type Segmenter struct {
	cfg Config
}

func New(cfg Config) *Segmenter {
	if cfg.MaxOrderKey <= 0 {
		cfg.MaxOrderKey = 550
	}
	if cfg.FallbackCharsPerProvision <= 0 {
		cfg.FallbackCharsPerProvision = 4000
	}
	return &Segmenter{cfg: cfg}
}

// NormalizeLabel strips leading zeros from a provision label: "026A" -> "26A".
func NormalizeLabel(label string) string {
	m := labelRe.FindStringSubmatch(label)
	if m == nil {
		return label
	}
	base, err := strconv.Atoi(m[2])
	if err != nil {
		return label
	}
	return strconv.Itoa(base) + m[3]
}

// OrderKey converts a label to its monotonic sort key: "26" -> 26,
// "26A" -> 26.1, "26B" -> 26.2. Returns -1 for unparseable labels.
func OrderKey(label string) float64 {
	m := labelRe.FindStringSubmatch(NormalizeLabel(label))
	if m == nil {
		return -1
	}
	base, err := strconv.Atoi(m[2])
	if err != nil {
		return -1
	}
	if m[3] == "" {
		return float64(base)
	}
	return float64(base) + float64(m[3][0]-'A'+1)/10.0
}

// Segment parses raw statute text into ordered provisions. Text is
// precleaned first; page markers survive cleaning and drive page
// attribution. Zero provisions is a valid (empty) result.
func (s *Segmenter) Segment(text string) []domain.Provision {
	cleaned := Preclean(text)
	pages := buildPageIndex(cleaned)

	acc := newAccumulator(s.cfg.MaxOrderKey)
	s.strictPass(cleaned, pages, acc)

	if s.underSegmented(cleaned, len(acc.provisions)) {
		s.loosePass(cleaned, pages, acc)
		sort.Slice(acc.provisions, func(i, j int) bool {
			return acc.provisions[i].OrderKey < acc.provisions[j].OrderKey
		})
	}

	for i := range acc.provisions {
		acc.provisions[i].Position = i + 1
	}
	return acc.provisions
}

// accumulator holds the accept/reject state shared by both passes:
// monotonic previous key and the labels already claimed.
type accumulator struct {
	maxKey     float64
	prevKey    float64
	seen       map[string]struct{}
	provisions []domain.Provision
}

func newAccumulator(maxKey float64) *accumulator {
	return &accumulator{
		maxKey:  maxKey,
		prevKey: -1,
		seen:    make(map[string]struct{}),
	}
}

// accept applies the shared rejection rules. A candidate whose key does
// not advance past the previous accepted key is a false positive: a
// cross-reference inside running prose or OCR noise, not a heading.
func (a *accumulator) accept(label string, key float64, content string, page int) bool {
	if key <= 0 || key > a.maxKey {
		return false
	}
	if key <= a.prevKey+orderEpsilon {
		return false
	}
	if content == "" {
		return false
	}
	if _, dup := a.seen[label]; dup {
		return false
	}
	a.seen[label] = struct{}{}
	a.prevKey = key
	a.provisions = append(a.provisions, domain.Provision{
		Label:    label,
		OrderKey: key,
		Text:     content,
		Page:     page,
	})
	return true
}

// strictPass scans line-anchored headings. Each candidate's body runs to
// whichever comes first of the next heading candidate, the next page
// marker, or end of text.
func (s *Segmenter) strictPass(text string, pages pageIndex, acc *accumulator) {
	matches := strictHeadingRe.FindAllStringSubmatchIndex(text, -1)
	markerOffsets := pages.offsets()

	for i, m := range matches {
		label := NormalizeLabel(text[m[2]:m[3]])
		key := OrderKey(label)

		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		if mark := nextOffsetAfter(markerOffsets, bodyStart); mark >= 0 && mark < bodyEnd {
			bodyEnd = mark
		}

		acc.accept(label, key, cleanContent(text[bodyStart:bodyEnd]), pages.pageAt(m[0]))
	}
}

// loosePass re-scans with the number-period-anywhere pattern, applying
// the same monotonicity filter. The body of a loose candidate extends to
// the next candidate with a higher key, skipping interleaved noise.
func (s *Segmenter) loosePass(text string, pages pageIndex, acc *accumulator) {
	matches := looseHeadingRe.FindAllStringSubmatchIndex(text, -1)

	for i, m := range matches {
		label := NormalizeLabel(text[m[2]:m[3]])
		key := OrderKey(label)
		if key <= 0 || key > s.cfg.MaxOrderKey || key <= acc.prevKey+orderEpsilon {
			continue
		}

		bodyEnd := len(text)
		for j := i + 1; j < len(matches); j++ {
			if OrderKey(NormalizeLabel(text[matches[j][2]:matches[j][3]])) > key {
				bodyEnd = matches[j][0]
				break
			}
		}

		acc.accept(label, key, cleanContent(text[m[1]:bodyEnd]), pages.pageAt(m[0]))
	}
}

// underSegmented expects at least one provision per
// FallbackCharsPerProvision characters of text, never fewer than one:
// a strict pass that found nothing always warrants the loose re-scan.
func (s *Segmenter) underSegmented(text string, count int) bool {
	expected := len(text) / s.cfg.FallbackCharsPerProvision
	if expected < 1 {
		expected = 1
	}
	return count < expected
}

var whitespaceRunRe = regexp.MustCompile(`\s+`)

// cleanContent flattens a provision body: stray page markers out,
// whitespace collapsed.
func cleanContent(body string) string {
	out := pageMarkerRe.ReplaceAllString(body, " ")
	out = whitespaceRunRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// nextOffsetAfter returns the first offset >= from, or -1.
func nextOffsetAfter(offsets []int, from int) int {
	i := sort.SearchInts(offsets, from)
	if i == len(offsets) {
		return -1
	}
	return offsets[i]
}
