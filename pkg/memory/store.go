package memory

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	// DataDirName is the hidden workspace-local directory that holds all
	// durable state for a workspace.
	DataDirName = ".sentinelops"

	dbFileName = "memory.db"
)

// Store owns the SQLite database for one workspace. All operations are
// scoped to the workspace the store was opened for.
type Store struct {
	db            *sql.DB
	workspacePath string
	workspaceID   string
	dbPath        string
	logger        zerolog.Logger

	// mu serializes store operations. It is held only for the duration of
	// one database unit of work, never across a network call.
	mu sync.Mutex
}

// StoreConfig holds store configuration.
type StoreConfig struct {
	WorkspacePath string
	DBPath        string // optional override, defaults to <workspace>/.sentinelops/memory.db
	Logger        zerolog.Logger
}

// OpenStore opens (and on first use creates) the memory database for a
// workspace. Re-opening an existing store is a no-op beyond establishing
// a connection: schema creation is idempotent and the settings row is
// only inserted if absent.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.WorkspacePath == "" {
		return nil, errors.New("workspace path is required")
	}

	absPath, err := filepath.Abs(cfg.WorkspacePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace path: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dataDir := filepath.Join(absPath, DataDirName)
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, dbFileName)
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with FTS5 support
	db, err := sql.Open("sqlite3", dbPath+"?_fts5=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{
		db:            db,
		workspacePath: absPath,
		workspaceID:   WorkspaceID(absPath),
		dbPath:        dbPath,
		logger:        cfg.Logger,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Debug().
		Str("workspaceId", s.workspaceID).
		Str("db", dbPath).
		Msg("Memory store opened")

	return s, nil
}

// WorkspaceID derives the stable workspace identifier from an absolute
// workspace path: hex of the first 8 bytes of its SHA-256.
func WorkspaceID(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:8])
}

// WorkspaceID returns the id this store is scoped to.
func (s *Store) WorkspaceID() string {
	return s.workspaceID
}

// WorkspacePath returns the absolute workspace path this store was opened for.
func (s *Store) WorkspacePath() string {
	return s.workspacePath
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables, indexes, the FTS shadow index with its
// synchronization triggers, and the default settings row.
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			workspace_id TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT,
			type TEXT NOT NULL CHECK(type IN ('auto', 'user', 'conversation')),
			source_conversation_id TEXT,
			source_message_ids TEXT,
			embedding BLOB,
			embedding_model TEXT,
			tags TEXT,
			importance INTEGER DEFAULT 5,
			access_count INTEGER DEFAULT 0,
			last_accessed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			expires_at TEXT,
			is_pinned INTEGER DEFAULT 0,
			metadata TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_memories_workspace ON memories(workspace_id);
		CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);
		CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance DESC);
		CREATE INDEX IF NOT EXISTS idx_memories_pinned ON memories(is_pinned DESC, importance DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			content,
			summary,
			tags,
			content=memories,
			content_rowid=rowid
		);

		CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
			INSERT INTO memories_fts(rowid, content, summary, tags)
			VALUES (NEW.rowid, NEW.content, NEW.summary, NEW.tags);
		END;

		CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, content, summary, tags)
			VALUES ('delete', OLD.rowid, OLD.content, OLD.summary, OLD.tags);
		END;

		CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, content, summary, tags)
			VALUES ('delete', OLD.rowid, OLD.content, OLD.summary, OLD.tags);
			INSERT INTO memories_fts(rowid, content, summary, tags)
			VALUES (NEW.rowid, NEW.content, NEW.summary, NEW.tags);
		END;

		CREATE TABLE IF NOT EXISTS memory_settings (
			workspace_id TEXT PRIMARY KEY,
			auto_extract_enabled INTEGER DEFAULT 1,
			extraction_model TEXT,
			embedding_model TEXT DEFAULT 'openai/text-embedding-3-small',
			max_memories INTEGER DEFAULT 1000,
			context_injection_count INTEGER DEFAULT 5,
			similarity_threshold REAL DEFAULT 0.7,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Never overwrites an existing settings row.
	now := nowTimestamp()
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO memory_settings (workspace_id, created_at, updated_at) VALUES (?, ?, ?)",
		s.workspaceID, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}

	return nil
}

// Maintain runs store upkeep: merges the FTS index's incremental
// structures and checkpoints the WAL. Safe to call at any time.
func (s *Store) Maintain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("INSERT INTO memories_fts(memories_fts) VALUES('optimize')"); err != nil {
		return fmt.Errorf("failed to optimize FTS index: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	return nil
}

// nowTimestamp returns the current UTC time in a fixed-width RFC 3339
// form so lexicographic ordering matches chronological ordering.
func nowTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}
