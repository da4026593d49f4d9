package markingscheme

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	"github.com/yanqian/papersearch/pkg/util"
)

var (
	modelSolutionPattern = regexp.MustCompile(`(?:question\s*|q\s*[.\-–—]?\s*)(\d+)\s*[.\-–—:]?\s*model\s+solution`)
	questionRefPattern   = regexp.MustCompile(`(?:question\s*|q\s*\.?\s*)(\d+)`)
	numberedLinePattern  = regexp.MustCompile(`^(\d+)\.(?:\D|$)`)
)

var (
	modelSolutionEvidence = []string{"marks", "scale", "credit", "method", "correct", "incorrect"}
	lineContextWords      = []string{"marks", "model", "solution", "scale"}
	overviewPhrases       = []string{
		"instructions",
		"answer questions as follows",
		"section a",
		"section b",
		"answer all",
		"answer both",
		"answer any",
		"there are three sections",
		"write your answers in the spaces provided",
		"summary of mark allocations",
		"structure of the marking scheme",
	}
	solutionContentPhrases = []string{"method", "scale", "partial credit", "marking notes", "model solution"}
	solutionWords          = []string{"method", "scale", "marks", "credit", "solution"}
)

const mathSymbols = "=+-×÷∫∑√()[]"

// Locator finds the marking scheme page that grades a question.
type Locator struct {
	cfg Config
}

// NewLocator constructs a locator.
func NewLocator(cfg Config) *Locator {
	return &Locator{cfg: cfg}
}

// Locate scans pages for question n: first for an explicit model solution heading, then for
// a question reference on a page that carries solution evidence. When neither matches it
// falls back to page 1 with Found=false. ctx is checked between pages.
func (l *Locator) Locate(ctx context.Context, pages []corpus.Page, n int) (Result, error) {
	result := Result{QuestionNumber: n, ContentType: ContentUnknown}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if line, ok := findModelSolution(page.Text, n); ok {
			result.Page = page.Number
			result.Found = true
			result.ContentType = ContentSolution
			result.MatchedText = l.matched(line)
			result.Tier = "model-solution"
			return result, nil
		}
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line, ok := findQuestionReference(page.Text, n)
		if !ok {
			continue
		}
		contentType, accepted := l.classify(page.Text)
		if !accepted {
			continue
		}
		result.Page = page.Number
		result.Found = true
		result.ContentType = contentType
		result.MatchedText = l.matched(line)
		result.Tier = "question-reference"
		return result, nil
	}

	result.Page = 1
	result.Message = fmt.Sprintf("Question %d not found, showing first page", n)
	return result, nil
}

func findModelSolution(text string, n int) (string, bool) {
	lower := strings.ToLower(text)
	if !containsAny(lower, modelSolutionEvidence) {
		return "", false
	}
	for _, m := range modelSolutionPattern.FindAllStringSubmatchIndex(lower, -1) {
		if !numberMatches(lower, m, n) {
			continue
		}
		return lineAround(text, lower, m[0]), true
	}
	return "", false
}

func findQuestionReference(text string, n int) (string, bool) {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		hasContext := containsAny(lower, lineContextWords)

		for _, m := range questionRefPattern.FindAllStringSubmatchIndex(lower, -1) {
			if numberMatches(lower, m, n) && (m[0] == 0 || hasContext) {
				return line, true
			}
		}
		if m := numberedLinePattern.FindStringSubmatchIndex(lower); m != nil && numberMatches(lower, m, n) {
			return line, true
		}
	}
	return "", false
}

// numberMatches checks the captured number equals n and the match is not glued to a
// preceding word, so "faq3" or "eq 3" never count as question 3.
func numberMatches(s string, m []int, n int) bool {
	got, err := strconv.Atoi(s[m[2]:m[3]])
	if err != nil || got != n {
		return false
	}
	if m[0] == 0 {
		return true
	}
	prev := []rune(s[:m[0]])
	r := prev[len(prev)-1]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// classify decides whether a page holding a question reference is a grading page.
func (l *Locator) classify(text string) (ContentType, bool) {
	lower := strings.ToLower(text)
	overview := containsAny(lower, overviewPhrases)
	solutionContent := containsAny(lower, solutionContentPhrases)
	if overview && !solutionContent {
		return ContentUnknown, false
	}

	symbols := 0
	for _, r := range text {
		if strings.ContainsRune(mathSymbols, r) {
			symbols++
		}
	}
	words := 0
	for _, w := range solutionWords {
		if strings.Contains(lower, w) {
			words++
		}
	}
	if symbols < l.cfg.MinMathSymbols && words < l.cfg.MinSolutionWords {
		return ContentUnknown, false
	}
	if solutionContent {
		return ContentSolution, true
	}
	return ContentSummary, true
}

func (l *Locator) matched(line string) string {
	return util.TruncateRunes(strings.Join(strings.Fields(line), " "), l.cfg.MatchedTextChars)
}

// lineAround returns the original-case line holding byte offset pos of lower. Lowering can
// change byte lengths but never line breaks, so the line is located by its index.
func lineAround(text, lower string, pos int) string {
	lineIdx := strings.Count(lower[:pos], "\n")
	return strings.TrimSpace(strings.Split(text, "\n")[lineIdx])
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
