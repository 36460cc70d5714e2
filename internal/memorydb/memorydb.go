// Package memorydb is the persistent memory store: a SQLite `entries`
// table plus a Porter-stemmed FTS5 index over summary/tags/content,
// weighted per spec.md §4.6, WAL-mode and busy-timeout for process-safe
// single-writer/many-reader access — the same operating posture the
// teacher's sqlite_bm25.go used for its FTS5 index, retargeted from a
// bare doc_id/content shape onto the full memory-entry schema.
package memorydb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	"github.com/mnemo-run/mnemo/internal/errs"
)

// IDPrefix is prepended to every memory entry id.
const IDPrefix = "m_"

// idHexLength is the number of hex characters after IDPrefix.
const idHexLength = 12

// NewEntryID returns a fresh `m_`-prefixed entry id.
func NewEntryID() string {
	u := uuid.New()
	return IDPrefix + strings.ReplaceAll(u.String(), "-", "")[:idHexLength]
}

// Entry is a persisted memory record.
type Entry struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Summary    string    `json:"summary"`
	Tags       []string  `json:"tags"`
	Source     string    `json:"source"`
	SourceName string    `json:"source_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	CharCount  int       `json:"char_count"`
}

// SearchHit pairs an entry with its BM25 rank (ascending — lower is
// better, per FTS5 convention).
type SearchHit struct {
	Entry Entry
	Rank  float64
}

// Weights are the bm25() column weights applied to (summary, tags,
// content), per spec.md's 3/2/1 split.
type Weights struct {
	Summary float64
	Tags    float64
	Content float64
}

// DefaultWeights is the spec's 3/2/1 weighting.
var DefaultWeights = Weights{Summary: 3.0, Tags: 2.0, Content: 1.0}

// Config configures a DB's pragmas.
type Config struct {
	BusyTimeoutMS int
	CacheSizeKB   int
	Weights       Weights
}

// DefaultConfig returns the spec's defaults.
func DefaultConfig() Config {
	return Config{BusyTimeoutMS: 5000, CacheSizeKB: 64 * 1024, Weights: DefaultWeights}
}

// DB wraps the entries table and its FTS5 shadow index.
type DB struct {
	mu     sync.RWMutex
	sqldb  *sql.DB
	path   string
	cfg    Config
	closed bool
}

// Open opens (creating if necessary) the memory database at path. An
// empty path opens an in-memory database, useful for tests. If a legacy
// JSON index file is found alongside path, it is imported once and then
// ignored thereafter.
func Open(path string, cfg Config) (*DB, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create memory db directory: %w", err)
		}
		dsn = path
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}

	// One writer at a time; WAL + busy_timeout handles many readers and
	// serializes concurrent writers across processes, per spec.md §5.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = DefaultConfig().BusyTimeoutMS
	}
	if cfg.CacheSizeKB <= 0 {
		cfg.CacheSizeKB = DefaultConfig().CacheSizeKB
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA cache_size = -%d", cfg.CacheSizeKB),
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := sqldb.Exec(p); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	db := &DB{sqldb: sqldb, path: path, cfg: cfg}
	if err := db.initSchema(); err != nil {
		_ = sqldb.Close()
		return nil, errs.Wrap(errs.KindIndexInconsistency, "ERR_SCHEMA_INIT", err)
	}

	if path != "" {
		if err := db.migrateLegacyJSON(filepath.Join(filepath.Dir(path), "memory.json")); err != nil {
			slog.Warn("memorydb_legacy_migration_failed", slog.String("error", err.Error()))
		}
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT UNIQUE NOT NULL,
	summary     TEXT NOT NULL,
	tags_json   TEXT NOT NULL,
	timestamp   REAL NOT NULL,
	source      TEXT NOT NULL,
	source_name TEXT,
	char_count  INTEGER NOT NULL,
	content     TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
	summary,
	tags,
	content,
	content='entries',
	content_rowid='rowid',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
	INSERT INTO entries_fts(rowid, summary, tags, content)
	VALUES (new.rowid, new.summary, new.tags_json, new.content);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
	INSERT INTO entries_fts(entries_fts, rowid, summary, tags, content)
	VALUES ('delete', old.rowid, old.summary, old.tags_json, old.content);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
	INSERT INTO entries_fts(entries_fts, rowid, summary, tags, content)
	VALUES ('delete', old.rowid, old.summary, old.tags_json, old.content);
	INSERT INTO entries_fts(rowid, summary, tags, content)
	VALUES (new.rowid, new.summary, new.tags_json, new.content);
END;
`

func (db *DB) initSchema() error {
	_, err := db.sqldb.Exec(schema)
	return err
}

// Close closes the underlying connection, checkpointing WAL first.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	_, _ = db.sqldb.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return db.sqldb.Close()
}

func tagsJSON(tags []string) (string, error) {
	deduped := dedupeTags(tags)
	b, err := json.Marshal(deduped)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// dedupeTags lowercases and collapses duplicate tags, preserving
// insertion order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Insert atomically adds entry, rejecting a duplicate id.
func (db *DB) Insert(ctx context.Context, entry Entry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if entry.Content == "" {
		return errs.InvalidArgument("ERR_EMPTY_CONTENT", "entry content must not be empty")
	}

	tags, err := tagsJSON(entry.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if entry.CharCount == 0 {
		entry.CharCount = len(entry.Content)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err = db.sqldb.ExecContext(ctx, `
		INSERT INTO entries (id, summary, tags_json, timestamp, source, source_name, char_count, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Summary, tags, float64(entry.CreatedAt.UnixNano())/1e9,
		entry.Source, entry.SourceName, entry.CharCount, entry.Content)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errs.Conflict("ERR_DUPLICATE_ID", fmt.Sprintf("entry %q already exists", entry.ID))
		}
		if strings.Contains(err.Error(), "locked") || strings.Contains(err.Error(), "busy") {
			return errs.Busy("ERR_DB_BUSY", "memory database is busy")
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Delete removes id; a no-op if absent.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.sqldb.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func scanEntry(row interface {
	Scan(dest ...any) error
}) (Entry, error) {
	var (
		e         Entry
		tagsStr   string
		timestamp float64
	)
	if err := row.Scan(&e.ID, &e.Summary, &tagsStr, &timestamp, &e.Source, &e.SourceName, &e.CharCount, &e.Content); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.Unix(0, int64(timestamp*1e9))
	var tags []string
	_ = json.Unmarshal([]byte(tagsStr), &tags)
	e.Tags = tags
	return e, nil
}

// Get fetches entry id in full.
func (db *DB) Get(ctx context.Context, id string) (Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.sqldb.QueryRowContext(ctx, `
		SELECT id, summary, tags_json, timestamp, source, source_name, char_count, content
		FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, errs.NotFound("ERR_ENTRY_NOT_FOUND", fmt.Sprintf("entry %q not found", id))
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// GetContent fetches only the content column of id.
func (db *DB) GetContent(ctx context.Context, id string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var content string
	err := db.sqldb.QueryRowContext(ctx, `SELECT content FROM entries WHERE id = ?`, id).Scan(&content)
	if err == sql.ErrNoRows {
		return "", errs.NotFound("ERR_ENTRY_NOT_FOUND", fmt.Sprintf("entry %q not found", id))
	}
	if err != nil {
		return "", fmt.Errorf("get entry content: %w", err)
	}
	return content, nil
}

// hasAllTags reports whether tagsJSON (a JSON array of lowercase tags)
// contains every tag in want as an exact element — never a substring
// match against another tag.
func hasAllTags(tagsJSON string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	var have []string
	if err := json.Unmarshal([]byte(tagsJSON), &have); err != nil {
		return false
	}
	haveSet := make(map[string]struct{}, len(have))
	for _, t := range have {
		haveSet[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := haveSet[strings.ToLower(w)]; !ok {
			return false
		}
	}
	return true
}

// Search runs a BM25-ranked full-text match over query, optionally
// filtered to entries whose tag set contains every tag in tags (exact
// match). Results are ordered ascending by rank (lower is better), tied
// broken by newer timestamp first.
func (db *DB) Search(ctx context.Context, query string, tags []string, limit int) ([]SearchHit, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if strings.TrimSpace(query) == "" {
		return nil, errs.InvalidArgument("ERR_EMPTY_QUERY", "search query must not be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	w := db.cfg.Weights
	// ftsQuery escapes the caller's free-text query so callers never
	// compose raw FTS5 MATCH syntax themselves.
	ftsQuery := quoteFTSQuery(query)

	rows, err := db.sqldb.QueryContext(ctx, `
		SELECT e.id, e.summary, e.tags_json, e.timestamp, e.source, e.source_name, e.char_count, e.content,
		       bm25(entries_fts, ?, ?, ?) AS rank
		FROM entries_fts
		JOIN entries e ON e.rowid = entries_fts.rowid
		WHERE entries_fts MATCH ?
		ORDER BY rank ASC, e.timestamp DESC
		LIMIT ?`, w.Summary, w.Tags, w.Content, ftsQuery, limit*4)
	if err != nil {
		if strings.Contains(err.Error(), "fts5: syntax error") {
			return nil, errs.InvalidArgument("ERR_BAD_QUERY", "malformed search query")
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var (
			e         Entry
			tagsStr   string
			timestamp float64
			rank      float64
		)
		if err := rows.Scan(&e.ID, &e.Summary, &tagsStr, &timestamp, &e.Source, &e.SourceName, &e.CharCount, &e.Content, &rank); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		if len(tags) > 0 && !hasAllTags(tagsStr, tags) {
			continue
		}
		e.CreatedAt = time.Unix(0, int64(timestamp*1e9))
		var tagList []string
		_ = json.Unmarshal([]byte(tagsStr), &tagList)
		e.Tags = tagList

		hits = append(hits, SearchHit{Entry: e, Rank: rank})
		if len(hits) >= limit {
			break
		}
	}
	return hits, rows.Err()
}

// quoteFTSQuery wraps each whitespace-separated term in double quotes so
// the caller's free text can never be interpreted as FTS5 query syntax
// (column filters, NOT/OR operators, NEAR, etc).
func quoteFTSQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}

// List returns entries in reverse-chronological order, optionally
// filtered to entries containing every tag in tags (exact match).
func (db *DB) List(ctx context.Context, tags []string, offset, limit int) ([]Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := db.sqldb.QueryContext(ctx, `
		SELECT id, summary, tags_json, timestamp, source, source_name, char_count, content
		FROM entries ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var all []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if len(tags) > 0 {
			tagsStr, _ := tagsJSON(e.Tags)
			if !hasAllTags(tagsStr, tags) {
				continue
			}
		}
		all = append(all, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if offset >= len(all) {
		return []Entry{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// TagHistogram returns a count of entries per tag.
func (db *DB) TagHistogram(ctx context.Context) (map[string]int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.sqldb.QueryContext(ctx, `SELECT tags_json FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("tag histogram: %w", err)
	}
	defer rows.Close()

	hist := make(map[string]int)
	for rows.Next() {
		var tagsStr string
		if err := rows.Scan(&tagsStr); err != nil {
			return nil, err
		}
		var tags []string
		_ = json.Unmarshal([]byte(tagsStr), &tags)
		for _, t := range tags {
			hist[t]++
		}
	}
	return hist, rows.Err()
}

// CheckConsistency verifies entries row count equals the FTS index row
// count, per Testable Property 4. A mismatch is an IndexInconsistency
// error: fatal, the store should be treated read-only until repaired.
func (db *DB) CheckConsistency(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var entriesCount, ftsCount int
	if err := db.sqldb.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&entriesCount); err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	if err := db.sqldb.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries_fts`).Scan(&ftsCount); err != nil {
		return fmt.Errorf("count fts: %w", err)
	}
	if entriesCount != ftsCount {
		return errs.IndexInconsistency("ERR_FTS_DRIFT",
			fmt.Sprintf("entries row count (%d) does not match FTS index row count (%d)", entriesCount, ftsCount))
	}
	return nil
}

// Count returns the total number of entries.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int
	err := db.sqldb.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// legacyEntry mirrors the shape of a pre-SQLite JSON index file.
type legacyEntry struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Source    string   `json:"source"`
	Timestamp float64  `json:"timestamp"`
}

// migrateLegacyJSON imports a legacy JSON memory index, if present, and
// leaves the file in place. There is no migration flag: the import runs
// only while the database has no entries, so once it holds any the file is
// ignored, and an emptied database imports the file again.
func (db *DB) migrateLegacyJSON(legacyPath string) error {
	data, err := os.ReadFile(legacyPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy index: %w", err)
	}

	n, err := db.Count(context.Background())
	if err != nil {
		return err
	}
	if n > 0 {
		return nil // already has data; assume already migrated
	}

	var legacy []legacyEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parse legacy index: %w", err)
	}

	sort.Slice(legacy, func(i, j int) bool { return legacy[i].Timestamp < legacy[j].Timestamp })

	for _, le := range legacy {
		entry := Entry{
			ID:        le.ID,
			Content:   le.Content,
			Summary:   le.Summary,
			Tags:      le.Tags,
			Source:    le.Source,
			CreatedAt: time.Unix(0, int64(le.Timestamp*1e9)),
			CharCount: len(le.Content),
		}
		if entry.ID == "" {
			entry.ID = NewEntryID()
		}
		if err := db.Insert(context.Background(), entry); err != nil && errs.KindOf(err) != errs.KindConflict {
			slog.Warn("memorydb_legacy_entry_skip", slog.String("id", entry.ID), slog.String("error", err.Error()))
		}
	}

	slog.Info("memorydb_legacy_migrated", slog.Int("count", len(legacy)), slog.String("path", legacyPath))
	return nil
}
