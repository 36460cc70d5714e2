package chunk

import "sort"

// Recommendation is one suggested strategy with a one-line rationale,
// per spec.md §4.4's recommendation engine.
type Recommendation struct {
	Strategy  Strategy `json:"strategy"`
	Rationale string   `json:"rationale"`
}

// ScanSummary is the subset of scanner output the recommendation engine
// reasons over — predicates only, never content.
type ScanSummary struct {
	FileCount          int
	DirectoryCount     int
	LanguageCounts     map[string]int
	LargestFileBytes   int64
	LargestFileHasAST  bool // true if the largest file's language has a registered tree-sitter grammar
	HasMarkdown        bool
	AvgFileBytes       int64
	SingleLargeFile    bool // true if the scan target is a single file rather than a tree
	SingleFileBytes    int64
	SingleFileLanguage string
}

// Recommend returns an ordered list of (strategy, rationale) pairs using
// simple predicates over scan metadata, per spec.md's predicate table.
// Ties are broken toward the strategy with the smaller expected per-chunk
// size (functions/headings before semantic before lines, file-language
// before file-directory for large multi-language trees).
func Recommend(meta ScanSummary) []Recommendation {
	var recs []Recommendation

	if meta.SingleLargeFile {
		if meta.SingleFileLanguage != "" && meta.LargestFileHasAST {
			recs = append(recs, Recommendation{
				Strategy:  StrategyFunctions,
				Rationale: "single large source file with detectable function/class structure",
			})
		}
		if meta.SingleFileLanguage == "markdown" {
			recs = append(recs, Recommendation{
				Strategy:  StrategyHeadings,
				Rationale: "markdown file — split at heading boundaries",
			})
		}
		if len(recs) == 0 {
			if meta.SingleFileBytes > DefaultTargetSize {
				recs = append(recs, Recommendation{
					Strategy:  StrategySemantic,
					Rationale: "large unstructured file — coalesce blank-line-separated blocks",
				})
			}
			recs = append(recs, Recommendation{
				Strategy:  StrategyLines,
				Rationale: "no detectable structure — fall back to fixed line windows",
			})
		}
		return recs
	}

	if meta.HasMarkdown {
		recs = append(recs, Recommendation{
			Strategy:  StrategyHeadings,
			Rationale: "tree contains markdown documentation — split at heading boundaries",
		})
	}

	if meta.FileCount > 20 {
		if len(meta.LanguageCounts) > 1 {
			recs = append(recs, Recommendation{
				Strategy:  StrategyFilesLanguage,
				Rationale: "many files across multiple languages — group by detected language",
			})
		}
		recs = append(recs, Recommendation{
			Strategy:  StrategyFilesDirectory,
			Rationale: "many files — group by parent directory",
		})
		recs = append(recs, Recommendation{
			Strategy:  StrategyFilesBalanced,
			Rationale: "many files — partition into roughly equal-sized groups for balanced subagent workloads",
		})
	}

	hasStructuredLang := false
	for lang := range meta.LanguageCounts {
		if _, ok := DefaultRegistry().GetByName(lang); ok {
			hasStructuredLang = true
			break
		}
	}
	if hasStructuredLang {
		recs = append(recs, Recommendation{
			Strategy:  StrategyFunctions,
			Rationale: "source files with detectable structure — split at function/class boundaries",
		})
	}

	recs = append(recs, Recommendation{
		Strategy:  StrategyLines,
		Rationale: "generic fallback — fixed line windows with overlap",
	})

	sortRecommendationsBySize(recs)
	return dedupeRecommendations(recs)
}

// expectedChunkSize orders strategies by how small their typical chunk
// is, smallest first, so ties favor the finer-grained strategy.
var expectedChunkSize = map[Strategy]int{
	StrategyHeadings:       1,
	StrategyFunctions:      2,
	StrategyFilesLanguage:  3,
	StrategyFilesDirectory: 4,
	StrategyFilesBalanced:  5,
	StrategySemantic:       6,
	StrategyLines:          7,
}

func sortRecommendationsBySize(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return expectedChunkSize[recs[i].Strategy] < expectedChunkSize[recs[j].Strategy]
	})
}

func dedupeRecommendations(recs []Recommendation) []Recommendation {
	seen := make(map[Strategy]bool, len(recs))
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if seen[r.Strategy] {
			continue
		}
		seen[r.Strategy] = true
		out = append(out, r)
	}
	return out
}
