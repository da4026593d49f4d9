package questionsearch

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// Strategy is one way of cutting document text into question candidates.
// A strategy is accepted when its split yields at least MinYield pieces.
type Strategy struct {
	Name     string
	Pattern  *regexp.Regexp
	MinYield int
}

// DefaultStrategies returns the header formats seen across exam years, most specific first.
func DefaultStrategies(minYield int) []Strategy {
	if minYield <= 0 {
		minYield = 3
	}
	return []Strategy{
		{Name: "question-header", Pattern: regexp.MustCompile(`(?i)question\s+\d+\s*\([^)]+\)`), MinYield: minYield},
		{Name: "numbered-subpart", Pattern: regexp.MustCompile(`(?m)^\d+\.\s*\([a-z]\)`), MinYield: minYield},
		{Name: "numbered-capital", Pattern: regexp.MustCompile(`(?m)^\d+\.\s+[A-Z]`), MinYield: minYield},
	}
}

var boilerplatePhrases = []string{
	"leaving certificate",
	"mathematics",
	"paper 1",
	"higher level",
	"page",
	"marks",
	"examination",
	"state examinations commission",
	"coimisiún na scrúduithe stáit",
	"for examiner",
}

// SegmenterConfig tunes the cleaning thresholds. A piece is kept only when its trimmed raw
// text is longer than MinRawChars and its cleaned text longer than MinCleanChars.
type SegmenterConfig struct {
	MinRawChars   int
	MinCleanChars int
	MinYield      int
}

// Segment is a cleaned question candidate with its page of origin.
type Segment struct {
	Text   string
	Page   int
	Offset int
}

// Segmenter splits a document's pages into page anchored question texts.
type Segmenter struct {
	strategies []Strategy
	minRaw     int
	minClean   int
}

// NewSegmenter builds a segmenter with the default strategy cascade.
func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	return NewSegmenterWithStrategies(cfg, DefaultStrategies(cfg.MinYield))
}

// NewSegmenterWithStrategies allows a custom cascade.
func NewSegmenterWithStrategies(cfg SegmenterConfig, strategies []Strategy) *Segmenter {
	return &Segmenter{strategies: strategies, minRaw: cfg.MinRawChars, minClean: cfg.MinCleanChars}
}

type piece struct {
	start int
	text  string
}

// Segment returns retained segments in document order. Offsets and pages never decrease.
func (s *Segmenter) Segment(pages []corpus.Page) []Segment {
	if len(pages) == 0 || len(s.strategies) == 0 {
		return nil
	}

	var b strings.Builder
	boundaries := make([]int, 0, len(pages))
	for _, p := range pages {
		b.WriteString(p.Text)
		b.WriteByte('\n')
		boundaries = append(boundaries, b.Len())
	}
	full := b.String()

	var pieces []piece
	for _, strategy := range s.strategies {
		pieces = splitAt(full, strategy.Pattern)
		if len(pieces) >= strategy.MinYield {
			break
		}
	}

	segments := make([]Segment, 0, len(pieces))
	for _, p := range pieces {
		raw := strings.TrimSpace(p.text)
		if utf8.RuneCountInString(raw) <= s.minRaw {
			continue
		}
		cleaned := cleanSegment(raw)
		if utf8.RuneCountInString(cleaned) <= s.minClean {
			continue
		}
		offset := p.start + len(p.text) - len(strings.TrimLeftFunc(p.text, unicode.IsSpace))
		segments = append(segments, Segment{
			Text:   cleaned,
			Page:   pageAt(pages, boundaries, offset),
			Offset: offset,
		})
	}
	return segments
}

// splitAt cuts text in front of every match, keeping the leading piece even when empty,
// so n matches always give n+1 pieces.
func splitAt(text string, pattern *regexp.Regexp) []piece {
	locs := pattern.FindAllStringIndex(text, -1)
	pieces := make([]piece, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		pieces = append(pieces, piece{start: prev, text: text[prev:loc[0]]})
		prev = loc[0]
	}
	return append(pieces, piece{start: prev, text: text[prev:]})
}

func cleanSegment(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isBoilerplate(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// pageAt returns the page whose cumulative boundary first exceeds offset, or the last page.
func pageAt(pages []corpus.Page, boundaries []int, offset int) int {
	for i, boundary := range boundaries {
		if offset < boundary {
			return pages[i].Number
		}
	}
	return pages[len(pages)-1].Number
}
