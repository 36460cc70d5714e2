package tagger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordTagsFrequencyOrder(t *testing.T) {
	text := "deploy deploy deploy migrations migrations ops"
	tags := KeywordTags(text, 3)
	assert.Equal(t, []string{"deploy", "migrations", "ops"}, tags)
}

func TestKeywordTagsDropsStopWords(t *testing.T) {
	text := "the quick brown fox and the lazy dog"
	tags := KeywordTags(text, 10)
	assert.NotContains(t, tags, "the")
	assert.NotContains(t, tags, "and")
}

func TestKeywordTagsSplitsCamelAndSnakeCase(t *testing.T) {
	text := "parseHTTPRequest parse_http_request"
	tags := KeywordTags(text, 10)
	assert.Contains(t, tags, "parse")
	assert.Contains(t, tags, "http")
	assert.Contains(t, tags, "request")
}

func TestKeywordTagsWhitelistsShortTechnicalTerms(t *testing.T) {
	text := "our api uses sql and mcp tools"
	tags := KeywordTags(text, 10)
	assert.Contains(t, tags, "api")
	assert.Contains(t, tags, "sql")
	assert.Contains(t, tags, "mcp")
}

func TestDetectProjectNameFallsBackToDirName(t *testing.T) {
	name := DetectProjectName("/tmp/definitely-not-a-real-project-dir-xyz")
	assert.Equal(t, "definitely-not-a-real-project-dir-xyz", name)
}
