package memory

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// tokenize splits text with code-aware rules: camelCase, PascalCase, and
// snake_case identifiers are split into their parts, all tokens are
// lowercased, and tokens shorter than 3 characters are dropped — the
// same camelCase/snake_case-aware tokenizer the teacher's BM25 indexer
// used, reused here for deterministic tag/summary generation since
// memory content is frequently code or config snippets.
func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			lower := strings.ToLower(t)
			if len(lower) >= 3 {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// stopWords are common English/code words filtered from keyword
// extraction so generated tags stay topical.
var stopWords = buildStopWordSet([]string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "her",
	"was", "one", "our", "out", "day", "get", "has", "him", "his", "how",
	"man", "new", "now", "old", "see", "two", "way", "who", "boy", "did",
	"its", "let", "put", "say", "she", "too", "use", "this", "that", "with",
	"from", "have", "they", "will", "what", "when", "your", "then", "them",
	"these", "which", "their", "there", "about", "would", "could", "should",
	"func", "function", "var", "let", "const", "def", "class", "return",
	"if", "else", "while", "data", "result", "value", "item", "key", "err",
	"ctx", "tmp",
})

func buildStopWordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// keywordTags picks the top n most frequent non-stopword tokens from
// text, in descending frequency order, ties broken by first appearance.
func keywordTags(text string, n int) []string {
	tokens := tokenize(text)
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, t := range tokens {
		if _, stop := stopWords[t]; stop {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	// Stable sort by descending count, preserving first-appearance order
	// for ties.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	if len(order) > n {
		order = order[:n]
	}
	return order
}
