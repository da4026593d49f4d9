package questionsearch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	phraseWeight  = 0.5
	exactWeight   = 0.3
	partialWeight = 0.1
)

var stopWords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "could", "should", "may", "might", "can", "about",
	"find", "calculate", "solve", "show", "prove", "question", "questions", "problem", "problems",
)

var apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Normalize lower-cases text, unifies apostrophes, blanks out punctuation and collapses whitespace.
func Normalize(text string) string {
	text = apostropheReplacer.Replace(strings.ToLower(text))
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\'' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// QueryTerms returns the significant terms of a query: tokens longer than two characters
// that are not stop words.
func QueryTerms(query string) []string {
	return termsOf(Normalize(query))
}

func termsOf(normalized string) []string {
	var terms []string
	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// KeywordScore measures lexical overlap between a query and a question in [0, 1].
func KeywordScore(query, text string) float64 {
	return prepareQuery(query).score(newKeywordDocument(text))
}

type preparedQuery struct {
	normalized string
	terms      []string
}

func prepareQuery(query string) preparedQuery {
	normalized := Normalize(query)
	return preparedQuery{normalized: normalized, terms: termsOf(normalized)}
}

type keywordDocument struct {
	normalized string
	tokens     []string
	tokenSet   map[string]struct{}
}

func newKeywordDocument(text string) keywordDocument {
	normalized := Normalize(text)
	tokens := strings.Fields(normalized)
	return keywordDocument{normalized: normalized, tokens: tokens, tokenSet: toSet(tokens...)}
}

func (q preparedQuery) score(doc keywordDocument) float64 {
	if len(q.terms) == 0 {
		return 0
	}
	var score float64
	if strings.Contains(doc.normalized, q.normalized) {
		score += phraseWeight
	}

	var exact, partial int
	for _, term := range q.terms {
		if _, ok := doc.tokenSet[term]; ok {
			exact++
			continue
		}
		for _, token := range doc.tokens {
			if strings.Contains(token, term) {
				partial++
				break
			}
		}
	}
	n := float64(len(q.terms))
	score += exactWeight*float64(exact)/n + partialWeight*float64(partial)/n
	if score > 1 {
		return 1
	}
	return score
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
