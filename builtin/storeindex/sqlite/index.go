// Package sqlite implements StoreIndex on a SQLite database so the store
// model survives between runs.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is incremented when schema changes require reindexing.
const SchemaVersion = 1

// Index implements the StoreIndex interface using SQLite.
type Index struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite store index.
func New() *Index {
	return &Index{}
}

// Name returns the store name.
func (s *Index) Name() string {
	return "sqlite"
}

// Init opens or creates the database at path.
func (s *Index) Init(path string) error {
	s.path = path

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode for concurrent reads, busy_timeout to wait for locks instead of failing immediately
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.checkSchemaVersion(); err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}
	if err := s.createSchema(); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// checkSchemaVersion drops index tables written by another schema version.
func (s *Index) checkSchemaVersion() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return err
	}

	var stored string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&stored)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if stored == strconv.Itoa(SchemaVersion) {
		return nil
	}

	slog.Warn("index schema changed, dropping stored model", "stored", stored, "current", SchemaVersion)
	for _, table := range []string{"modules", "symbols", "file_cache"} {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return err
		}
	}
	_, err = s.db.Exec("DELETE FROM metadata")
	return err
}

// createSchema creates all necessary tables.
func (s *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS modules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			state_path TEXT NOT NULL,
			namespaced INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			start_byte INTEGER NOT NULL,
			end_byte INTEGER NOT NULL,
			detached INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_modules_file_path ON modules(file_path)`,
		`CREATE TABLE IF NOT EXISTS symbols (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			byte_offset INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_lookup ON symbols(kind, namespace, name)`,
		`CREATE TABLE IF NOT EXISTS file_cache (
			file_path TEXT PRIMARY KEY,
			file_hash TEXT NOT NULL,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(SchemaVersion))
	return err
}

// Close closes the database.
func (s *Index) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load replaces the stored model in a single transaction.
func (s *Index) Load(model *types.StoreModel) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrStoreFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM modules"); err != nil {
		return fmt.Errorf("failed to clear modules: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM symbols"); err != nil {
		return fmt.Errorf("failed to clear symbols: %w", err)
	}

	modStmt, err := tx.Prepare(`
		INSERT INTO modules (namespace, state_path, namespaced, file_path, start_byte, end_byte, detached)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer modStmt.Close()

	for _, m := range model.Modules {
		if _, err := modStmt.Exec(m.Namespace, m.StatePath, m.Namespaced, m.FilePath, m.StartByte, m.EndByte, m.Detached); err != nil {
			return fmt.Errorf("failed to store module %q: %w", m.StatePath, err)
		}
	}

	symStmt, err := tx.Prepare(`
		INSERT INTO symbols (namespace, name, kind, file_path, line, byte_offset)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer symStmt.Close()

	for _, sym := range model.Symbols {
		if _, err := symStmt.Exec(sym.Namespace, sym.Name, string(sym.Kind), sym.FilePath, sym.Line, sym.Offset); err != nil {
			return fmt.Errorf("failed to store symbol %s: %w", sym.QualifiedName(), err)
		}
	}

	return tx.Commit()
}

const symbolColumns = "namespace, name, kind, file_path, line, byte_offset"

func scanSymbol(row interface{ Scan(...any) error }) (*types.StoreSymbol, error) {
	var sym types.StoreSymbol
	var kind string
	if err := row.Scan(&sym.Namespace, &sym.Name, &kind, &sym.FilePath, &sym.Line, &sym.Offset); err != nil {
		return nil, err
	}
	sym.Kind = types.SymbolKind(kind)
	return &sym, nil
}

// Lookup finds the first declared symbol by namespace, name and kind.
func (s *Index) Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool) {
	row := s.db.QueryRow(`SELECT `+symbolColumns+` FROM symbols
		WHERE kind = ? AND namespace = ? AND name = ? ORDER BY id LIMIT 1`,
		string(kind), namespace, name)

	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		slog.Debug("symbol lookup failed", "namespace", namespace, "name", name, "error", err)
		return nil, false
	}
	return sym, true
}

// HasNamespace reports whether some module path starts with namespace.
func (s *Index) HasNamespace(namespace string, kind types.SymbolKind) bool {
	if namespace == "" {
		return true
	}

	var query string
	switch {
	case kind == types.SymbolKindState:
		query = `SELECT 1 FROM modules WHERE instr(state_path, ?1) = 1 LIMIT 1`
	case kind.Valid():
		query = `SELECT 1 FROM modules WHERE instr(namespace, ?1) = 1 LIMIT 1`
	default:
		query = `SELECT 1 FROM modules WHERE instr(namespace, ?1) = 1 OR instr(state_path, ?1) = 1 LIMIT 1`
	}

	var one int
	err := s.db.QueryRow(query, namespace).Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		slog.Debug("namespace lookup failed", "namespace", namespace, "error", err)
	}
	return err == nil
}

// ModuleNamespace returns the kind's namespace of the smallest module range
// containing offset.
func (s *Index) ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool) {
	column := "namespace"
	if kind == types.SymbolKindState {
		column = "state_path"
	}

	var ns string
	err := s.db.QueryRow(`
		SELECT `+column+` FROM modules
		WHERE file_path = ? AND start_byte <= ? AND end_byte > ?
		ORDER BY (end_byte - start_byte) ASC, id ASC
		LIMIT 1
	`, filePath, offset, offset).Scan(&ns)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Debug("module lookup failed", "file", filePath, "error", err)
		}
		return "", false
	}
	return ns, true
}

// StatePath returns the state path of the first namespaced module
// registered under namespace.
func (s *Index) StatePath(namespace string) (string, bool) {
	if namespace == "" {
		return "", true
	}
	var statePath string
	err := s.db.QueryRow(`
		SELECT state_path FROM modules
		WHERE namespaced = 1 AND namespace = ?
		ORDER BY id LIMIT 1
	`, namespace).Scan(&statePath)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Debug("state path lookup failed", "namespace", namespace, "error", err)
		}
		return "", false
	}
	return statePath, true
}

// Symbols lists symbols matching filter, ordered by qualified name.
func (s *Index) Symbols(filter types.SymbolFilter) ([]*types.StoreSymbol, error) {
	var where []string
	var args []any

	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Prefix {
		where = append(where, "instr(namespace, ?) = 1")
		args = append(args, filter.Namespace)
	} else if filter.Namespace != "" {
		where = append(where, "namespace = ?")
		args = append(args, filter.Namespace)
	}
	if filter.Query != "" {
		where = append(where, "instr(lower(namespace || name), lower(?)) > 0")
		args = append(args, filter.Query)
	}

	query := "SELECT " + symbolColumns + " FROM symbols"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY namespace || name, kind, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var out []*types.StoreSymbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Modules lists registered modules in registration order.
func (s *Index) Modules() ([]*types.StoreModule, error) {
	rows, err := s.db.Query(`
		SELECT namespace, state_path, namespaced, file_path, start_byte, end_byte, detached
		FROM modules ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var out []*types.StoreModule
	for rows.Next() {
		var m types.StoreModule
		if err := rows.Scan(&m.Namespace, &m.StatePath, &m.Namespaced, &m.FilePath, &m.StartByte, &m.EndByte, &m.Detached); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// GetMetadata returns index metadata.
func (s *Index) GetMetadata() (*types.IndexMetadata, error) {
	row := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'index_metadata'")

	var jsonData string
	err := row.Scan(&jsonData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var meta types.IndexMetadata
	if err := json.Unmarshal([]byte(jsonData), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SetMetadata stores index metadata.
func (s *Index) SetMetadata(meta *types.IndexMetadata) error {
	jsonData, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO metadata (key, value) VALUES ('index_metadata', ?)
	`, string(jsonData))
	return err
}

// GetStats returns store statistics.
func (s *Index) GetStats() (*types.IndexStats, error) {
	stats := &types.IndexStats{ByKind: make(map[types.SymbolKind]int)}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM modules WHERE detached = 0").Scan(&stats.Modules); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&stats.Symbols); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM file_cache").Scan(&stats.Files); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM symbols GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.ByKind[types.SymbolKind(kind)] = count
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.DBSizeBytes = info.Size()
	}

	meta, err := s.GetMetadata()
	if err == nil && meta != nil {
		stats.LastIndexed = meta.LastUpdated
	}

	return stats, nil
}

// GetAllFileHashes returns all cached file hashes.
func (s *Index) GetAllFileHashes() (map[string]string, error) {
	rows, err := s.db.Query("SELECT file_path, file_hash FROM file_cache")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// SetFileHashes replaces the cached file hashes.
func (s *Index) SetFileHashes(hashes map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM file_cache"); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO file_cache (file_path, file_hash, indexed_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for path, hash := range hashes {
		if _, err := stmt.Exec(path, hash, now); err != nil {
			return fmt.Errorf("failed to cache hash for %s: %w", path, err)
		}
	}
	return tx.Commit()
}

var _ provider.StoreIndex = (*Index)(nil)
