package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mnemo-run/mnemo/internal/gitignore"
)

// gitignoreCacheSize bounds how many parsed .gitignore matchers the
// scanner keeps around per process, so a tree with deeply nested
// .gitignore files doesn't grow the cache without limit.
const gitignoreCacheSize = 1000

// Scanner walks a project tree and classifies each file it finds,
// without ever reading file content itself beyond the few bytes needed
// to sniff for binary/generated markers. One Scanner can be reused
// across many scans; its gitignore matcher cache is keyed by directory.
type Scanner struct {
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
	cacheMu        sync.RWMutex
}

// New builds a Scanner with an empty gitignore cache.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	return &Scanner{gitignoreCache: cache}, nil
}

// Scan walks opts.RootDir and streams a ScanResult per discovered file
// over the returned channel, closing it once the walk (and any enabled
// submodule walks) finish. Scanning runs in a background goroutine so
// callers can range over the channel as results arrive rather than
// waiting for the whole tree.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan ScanResult, workers*10)

	var submodulePaths []string
	if opts.Submodules != nil && opts.Submodules.Enabled {
		submodules, discoverErr := DiscoverSubmodules(absRoot, *opts.Submodules)
		if discoverErr != nil {
			slog.Warn("failed to discover submodules", slog.String("error", discoverErr.Error()))
		} else {
			for _, sm := range submodules {
				if !sm.Initialized {
					slog.Warn("skipping uninitialized submodule", slog.String("name", sm.Name), slog.String("path", sm.Path))
					continue
				}
				submodulePaths = append(submodulePaths, sm.Path)
				slog.Debug("discovered initialized submodule", slog.String("name", sm.Name), slog.String("path", sm.Path))
			}
		}
	}

	go func() {
		defer close(results)
		s.walkRoot(ctx, absRoot, opts, maxFileSize, results)
		for _, smPath := range submodulePaths {
			s.walkSubmodule(ctx, absRoot, smPath, opts, maxFileSize, results)
		}
	}()

	return results, nil
}

// walkRoot walks the project root itself and reports a top-level
// ScanResult error (rather than just logging) if the walk fails, since
// a failed root walk means the caller's scan came back empty.
func (s *Scanner) walkRoot(ctx context.Context, absRoot string, opts *ScanOptions, maxFileSize int64, results chan<- ScanResult) {
	if err := s.walk(ctx, absRoot, maxFileSize, opts, results); err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// walkSubmodule walks a single initialized submodule, reporting files
// with their path relative to the project root (e.g. "libs/utils/file.go")
// rather than the submodule. A failed submodule walk is logged and
// skipped rather than surfaced as a ScanResult error, so one broken
// submodule doesn't hide the rest of the scan.
func (s *Scanner) walkSubmodule(ctx context.Context, absRoot, submodulePath string, opts *ScanOptions, maxFileSize int64, results chan<- ScanResult) {
	submoduleAbsRoot := filepath.Join(absRoot, submodulePath)
	walkOpts := &walkOptions{pathPrefix: submodulePath}
	if err := s.walkDir(ctx, submoduleAbsRoot, maxFileSize, opts, walkOpts, results); err != nil && err != context.Canceled {
		slog.Warn("error scanning submodule", slog.String("submodule", submodulePath), slog.String("error", err.Error()))
	}
}

// walkOptions carries per-walk behavior that differs between a root
// scan and a submodule scan: submodule files are reported with their
// path prefixed by the submodule's own location under the project
// root, so the rest of the system can address them uniformly.
type walkOptions struct {
	pathPrefix string
}

// walk runs walkDir rooted at absRoot itself (the common project-root
// case, with no path prefixing).
func (s *Scanner) walk(ctx context.Context, absRoot string, maxFileSize int64, opts *ScanOptions, results chan<- ScanResult) error {
	return s.walkDir(ctx, absRoot, maxFileSize, opts, &walkOptions{}, results)
}

// walkDir performs one filepath.WalkDir pass starting at walkRoot,
// classifying every file it accepts and sending it to results. Exclusion
// (default patterns, sensitive filenames, gitignore, size, binary
// sniffing) is identical whether walkRoot is the project root or a
// submodule root; only the path reported in the resulting FileInfo
// differs, via walkOpts.pathPrefix.
func (s *Scanner) walkDir(ctx context.Context, walkRoot string, maxFileSize int64, opts *ScanOptions, walkOpts *walkOptions, results chan<- ScanResult) error {
	return filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}

		relPath, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if s.shouldExcludeDir(relPath, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		if s.shouldExcludeFile(relPath, walkRoot, opts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}
		if s.isBinaryFile(path) {
			return nil
		}

		language := DetectLanguage(relPath)
		if len(opts.IncludePatterns) > 0 && !s.matchesAnyPattern(relPath, opts.IncludePatterns) {
			return nil
		}

		reportedPath := relPath
		if walkOpts.pathPrefix != "" {
			reportedPath = filepath.Join(walkOpts.pathPrefix, relPath)
		}

		fileInfo := &FileInfo{
			Path:        reportedPath,
			AbsPath:     path,
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			ContentType: DetectContentType(language),
			Language:    language,
			IsGenerated: s.isGeneratedFile(path),
		}

		select {
		case results <- ScanResult{File: fileInfo}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// shouldExcludeDir reports whether relPath (relative to the directory
// being walked) matches a default, or caller-supplied, exclusion pattern.
func (s *Scanner) shouldExcludeDir(relPath string, opts *ScanOptions) bool {
	for _, pattern := range defaultExcludeDirs {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	for _, pattern := range opts.ExcludePatterns {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// shouldExcludeFile reports whether relPath should be skipped: a
// sensitive filename, a default exclusion, a caller-supplied exclusion,
// or (when enabled) a gitignore match.
func (s *Scanner) shouldExcludeFile(relPath, walkRoot string, opts *ScanOptions) bool {
	baseName := filepath.Base(relPath)

	for _, pattern := range sensitiveFilePatterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	for _, pattern := range defaultExcludeFiles {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	for _, pattern := range opts.ExcludePatterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	if opts.RespectGitignore && s.isGitignored(relPath, walkRoot) {
		return true
	}
	return false
}

// matchesAnyPattern reports whether relPath's basename matches any of
// patterns.
func (s *Scanner) matchesAnyPattern(relPath string, patterns []string) bool {
	baseName := filepath.Base(relPath)
	for _, pattern := range patterns {
		if matchFilePattern(baseName, relPath, pattern) {
			return true
		}
	}
	return false
}

// isBinaryFile sniffs the first 512 bytes of path for a NUL byte, the
// same heuristic git itself uses to decide whether a file is text.
func (s *Scanner) isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}
	return bytes.Contains(buf[:n], []byte{0})
}

// generatedFileMarkers are the leading-comment conventions tools use to
// flag a file as machine-written, checked against the first 1KB.
var generatedFileMarkers = []string{
	"// Code generated",
	"// DO NOT EDIT",
	"/* DO NOT EDIT",
	"# Generated by",
	"<!-- AUTO-GENERATED -->",
	"// Generated by",
	"/* Generated by",
}

func (s *Scanner) isGeneratedFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 1024)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}
	content := string(buf[:n])

	for _, marker := range generatedFileMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// isGitignored reports whether relPath is ignored by any .gitignore
// file between walkRoot and relPath's containing directory, checking
// the root .gitignore first and then each nested one in path order. The
// first matcher that ignores relPath decides, so a deeper .gitignore
// cannot re-include a path that a shallower one ignores.
func (s *Scanner) isGitignored(relPath, walkRoot string) bool {
	if m := s.getGitignoreMatcher(walkRoot, ""); m != nil && m.Match(relPath, false) {
		return true
	}

	parts := strings.Split(filepath.Dir(relPath), string(filepath.Separator))
	currentDir := walkRoot
	currentBase := ""

	for _, part := range parts {
		if part == "." {
			continue
		}
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = filepath.Join(currentBase, part)
		}

		if m := s.getGitignoreMatcher(currentDir, currentBase); m != nil && m.Match(relPath, false) {
			return true
		}
	}

	return false
}

// getGitignoreMatcher returns dir's parsed .gitignore matcher, building
// and caching it on first use. Directories without a .gitignore cache a
// nil entry implicitly by never populating the LRU, so a repeat lookup
// still costs one os.Stat.
func (s *Scanner) getGitignoreMatcher(dir, base string) *gitignore.Matcher {
	s.cacheMu.RLock()
	matcher, ok := s.gitignoreCache.Get(dir)
	s.cacheMu.RUnlock()
	if ok {
		return matcher
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		return nil
	}

	matcher = gitignore.New()
	if err := matcher.AddFromFile(gitignorePath, base); err != nil {
		return nil
	}

	s.cacheMu.Lock()
	s.gitignoreCache.Add(dir, matcher)
	s.cacheMu.Unlock()

	return matcher
}

// defaultExcludeDirs are directories never scanned regardless of
// .gitignore, since they're either VCS/build internals or carry
// credentials that should never reach the memory store.
var defaultExcludeDirs = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/.aws/**",
	"**/.gcp/**",
	"**/.azure/**",
	"**/.ssh/**",
}

// defaultExcludeFiles are files excluded regardless of .gitignore:
// minified bundles and lockfiles add bulk without useful structure.
var defaultExcludeFiles = []string{
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// sensitiveFilePatterns are filenames never indexed, regardless of any
// other option, so a scan can't accidentally pull credentials into the
// memory store.
var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",
	"*credentials*",
	"*secrets*",
	"*password*",
	".netrc",
	".npmrc",
	".pypirc",
	"id_rsa",
	"id_dsa",
	"id_ecdsa",
	"id_ed25519",
}
