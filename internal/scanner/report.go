// Report aggregates the scanner's per-file metadata stream into the
// single scan-operation result described in spec.md §4.2: counts,
// a language breakdown, a directory skeleton, and per-file structure
// outlines. It is the only place in this package that reads whole files
// (the walk only sniffs their first bytes) — and only to count lines and
// feed the structure extractor, never to hand content back to the caller.
package scanner

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mnemo-run/mnemo/internal/chunk"
)

// Symbol is one line-numbered structure-outline entry for a file:
// a function, method, class, or similar declaration.
type Symbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

// FileReport is one scanned file's metadata plus its structure outline.
type FileReport struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Size      int64    `json:"size"`
	Lines     int      `json:"lines"`
	Structure []Symbol `json:"structure,omitempty"`
}

// DirNode is one entry of the directory skeleton, up to the requested
// depth. Dirs past the depth limit are omitted entirely, not truncated.
type DirNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	IsDir    bool       `json:"is_dir"`
	Children []*DirNode `json:"children,omitempty"`
}

// Report is the full result of a scan operation.
type Report struct {
	RootDir       string         `json:"root_dir"`
	FileCount     int            `json:"file_count"`
	TotalLines    int            `json:"total_lines"`
	TotalBytes    int64          `json:"total_bytes"`
	Languages     map[string]int `json:"languages"`
	Skeleton      *DirNode       `json:"skeleton"`
	Files         []FileReport   `json:"files"`
	Errors        []string       `json:"errors,omitempty"`
}

// structuredLanguages is the set of languages with a registered
// tree-sitter grammar, per internal/chunk's LanguageRegistry. Every
// other language falls back to the regex outline.
var structuredLanguages = map[string]bool{
	"go":         true,
	"typescript": true,
	"tsx":        true,
	"javascript": true,
	"jsx":        true,
	"python":     true,
}

// BuildReport scans rootDir up to maxDepth (0 = unlimited) using scanner
// s and opts, and aggregates the results into a Report. It reads each
// discovered file once, to count lines and extract a structure outline,
// but never retains or returns file content.
func BuildReport(ctx context.Context, s *Scanner, opts *ScanOptions, maxDepth int) (*Report, error) {
	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RootDir:   opts.RootDir,
		Languages: make(map[string]int),
	}

	root := &DirNode{Name: filepath.Base(opts.RootDir), Path: ".", IsDir: true}
	dirIndex := map[string]*DirNode{".": root}

	var files []*FileInfo
	for res := range results {
		if res.Error != nil {
			report.Errors = append(report.Errors, res.Error.Error())
			continue
		}
		files = append(files, res.File)

		report.FileCount++
		report.TotalBytes += res.File.Size
		report.Languages[languageKey(res.File.Language)]++
		insertSkeleton(dirIndex, root, res.File.Path, maxDepth)
	}
	report.Skeleton = root

	// Line counting and structure extraction are per-file and CPU/IO bound
	// (tree-sitter parsing in particular), so they run concurrently across
	// a bounded worker pool rather than one file at a time.
	frs := make([]*FileReport, len(files))
	errs := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			absPath := filepath.Join(opts.RootDir, f.Path)
			lineCount, err := countLines(absPath)
			if err != nil {
				errs[i] = f.Path + ": " + err.Error()
				return nil
			}

			fr := &FileReport{
				Path:     f.Path,
				Language: f.Language,
				Size:     f.Size,
				Lines:    lineCount,
			}
			if f.ContentType == ContentTypeCode {
				fr.Structure = extractStructure(absPath, f.Language)
			}
			frs[i] = fr
			return nil
		})
	}
	_ = g.Wait()

	for i, fr := range frs {
		if fr == nil {
			if errs[i] != "" {
				report.Errors = append(report.Errors, errs[i])
			}
			continue
		}
		report.TotalLines += fr.Lines
		report.Files = append(report.Files, *fr)
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	return report, nil
}

func languageKey(lang string) string {
	if lang == "" {
		return "unknown"
	}
	return lang
}

// countLines counts lines in path without holding the file content in
// memory beyond a fixed-size buffer. A file ending without a trailing
// newline still counts its last partial line.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	count := 0
	sawAnyBytes := false
	endedWithNewline := false
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			sawAnyBytes = true
			for i := 0; i < n; i++ {
				if buf[i] == '\n' {
					count++
				}
			}
			endedWithNewline = buf[n-1] == '\n'
		}
		if readErr != nil {
			break
		}
	}
	if sawAnyBytes && !endedWithNewline {
		count++
	}
	return count, nil
}

// extractStructure returns the structure outline for path: a tree-sitter
// based outline for languages with a registered grammar, and a regex
// fallback (matching a small set of common function/class declaration
// shapes) for every other language.
func extractStructure(path, language string) []Symbol {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	if structuredLanguages[language] {
		if syms := structureViaAST(content, language); syms != nil {
			return syms
		}
	}
	return structureViaRegex(content)
}

func structureViaAST(content []byte, language string) []Symbol {
	registry := chunk.DefaultRegistry()
	if _, ok := registry.GetByName(language); !ok {
		return nil
	}

	parser := chunk.NewParserWithRegistry(registry)
	defer parser.Close()

	tree, err := parser.Parse(context.Background(), content, language)
	if err != nil {
		return nil
	}

	extractor := chunk.NewSymbolExtractorWithRegistry(registry)
	symbols := extractor.Extract(tree, content)

	out := make([]Symbol, 0, len(symbols))
	for _, sym := range symbols {
		switch sym.Type {
		case chunk.SymbolTypeFunction, chunk.SymbolTypeMethod, chunk.SymbolTypeClass, chunk.SymbolTypeInterface:
			out = append(out, Symbol{Name: sym.Name, Kind: string(sym.Type), Line: sym.StartLine})
		}
	}
	return out
}

// functionPatterns matches common function/class declaration shapes
// across languages with no registered grammar. It is intentionally
// coarse: a best-effort outline, not a parser.
var functionPatterns = []struct {
	prefix string
	kind   string
}{
	{"def ", "function"},
	{"class ", "class"},
	{"function ", "function"},
	{"async function ", "function"},
	{"fn ", "function"},
	{"func ", "function"},
	{"sub ", "function"},
	{"public class ", "class"},
	{"public void ", "function"},
	{"private void ", "function"},
}

func structureViaRegex(content []byte) []Symbol {
	var out []Symbol
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		trimmed := strings.TrimSpace(scanner.Text())
		for _, p := range functionPatterns {
			if strings.HasPrefix(trimmed, p.prefix) {
				name := extractDeclName(trimmed[len(p.prefix):])
				if name != "" {
					out = append(out, Symbol{Name: name, Kind: p.kind, Line: line})
				}
				break
			}
		}
	}
	return out
}

// extractDeclName pulls the identifier up to the first delimiter that
// ends a declaration name (`(`, `:`, `{`, whitespace, or `<` for
// generics).
func extractDeclName(rest string) string {
	end := strings.IndexAny(rest, "(:{ \t<")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// insertSkeleton adds relPath's parent directory chain to the skeleton
// rooted at root, stopping at maxDepth (0 = unlimited) directory levels
// deep. Intermediate directories are created as needed; the file itself
// is not added as a skeleton entry — only its containing directories.
func insertSkeleton(dirIndex map[string]*DirNode, root *DirNode, relPath string, maxDepth int) {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return
	}

	parts := strings.Split(filepath.ToSlash(dir), "/")
	if maxDepth > 0 && len(parts) > maxDepth {
		parts = parts[:maxDepth]
	}

	cur := "."
	parent := root
	for _, part := range parts {
		next := cur + "/" + part
		if cur == "." {
			next = part
		}
		node, ok := dirIndex[next]
		if !ok {
			node = &DirNode{Name: part, Path: next, IsDir: true}
			dirIndex[next] = node
			parent.Children = append(parent.Children, node)
		}
		parent = node
		cur = next
	}
}
