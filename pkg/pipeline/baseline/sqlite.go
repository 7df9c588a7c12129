package baseline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ganymede/pkg/pipeline"
)

// DB persists versioned baselines in a SQLite database so the active
// baseline survives restarts. Baselines are written rarely (once per
// establish call) and read on startup and from the history query, so
// the database runs with a single connection in WAL mode.
type DB struct {
	db        *sql.DB
	dbPath    string
	mu        sync.RWMutex
	closeOnce sync.Once

	// Pre-compiled statements, prepared once at open
	saveStmt   *sql.Stmt
	latestStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// OpenDB opens the baseline database at dbPath, creating the file and
// its parent directory if needed, and initializes the schema.
func OpenDB(dbPath string, busyTimeout time.Duration) (*DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		dbPath, int(busyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	d := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return d, nil
}

// initSchema creates the database schema if it doesn't exist.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS baselines (
		version INTEGER PRIMARY KEY,
		established_at INTEGER NOT NULL,
		sample_count INTEGER NOT NULL,
		durations TEXT NOT NULL,
		tokens TEXT NOT NULL,
		costs TEXT NOT NULL,
		char_entropy REAL NOT NULL,
		word_entropy REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_established_at ON baselines(established_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (d *DB) prepareStatements() error {
	var err error

	d.saveStmt, err = d.db.Prepare(`
		INSERT INTO baselines (version, established_at, sample_count, durations, tokens, costs, char_entropy, word_entropy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (version) DO UPDATE SET
			established_at = excluded.established_at,
			sample_count = excluded.sample_count,
			durations = excluded.durations,
			tokens = excluded.tokens,
			costs = excluded.costs,
			char_entropy = excluded.char_entropy,
			word_entropy = excluded.word_entropy
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	d.latestStmt, err = d.db.Prepare(`
		SELECT version, established_at, sample_count, durations, tokens, costs, char_entropy, word_entropy
		FROM baselines
		ORDER BY version DESC
		LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare latest statement: %w", err)
	}

	d.listStmt, err = d.db.Prepare(`
		SELECT version, established_at, sample_count, durations, tokens, costs, char_entropy, word_entropy
		FROM baselines
		ORDER BY version DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Save persists a baseline. Saving an existing version overwrites it.
func (d *DB) Save(ctx context.Context, b *pipeline.Baseline) error {
	if b == nil {
		return fmt.Errorf("baseline cannot be nil")
	}
	if b.Version <= 0 {
		return fmt.Errorf("baseline version must be positive, got %d", b.Version)
	}

	durationsJSON, err := json.Marshal(b.Durations)
	if err != nil {
		return fmt.Errorf("failed to marshal duration samples: %w", err)
	}
	tokensJSON, err := json.Marshal(b.Tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal token samples: %w", err)
	}
	costsJSON, err := json.Marshal(b.Costs)
	if err != nil {
		return fmt.Errorf("failed to marshal cost samples: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, err = d.saveStmt.ExecContext(ctx,
		b.Version,
		b.EstablishedAt.Unix(),
		b.SampleCount,
		string(durationsJSON),
		string(tokensJSON),
		string(costsJSON),
		b.CharEntropy,
		b.WordEntropy,
	)
	if err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}

	return nil
}

// Latest returns the highest-versioned persisted baseline, or nil when
// the database is empty.
func (d *DB) Latest(ctx context.Context) (*pipeline.Baseline, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		version       int
		establishedAt int64
		sampleCount   int
		durationsJSON string
		tokensJSON    string
		costsJSON     string
		charEntropy   float64
		wordEntropy   float64
	)

	err := d.latestStmt.QueryRowContext(ctx).Scan(
		&version,
		&establishedAt,
		&sampleCount,
		&durationsJSON,
		&tokensJSON,
		&costsJSON,
		&charEntropy,
		&wordEntropy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest baseline: %w", err)
	}

	b := &pipeline.Baseline{
		Version:       version,
		EstablishedAt: time.Unix(establishedAt, 0).UTC(),
		SampleCount:   sampleCount,
		CharEntropy:   charEntropy,
		WordEntropy:   wordEntropy,
	}
	if err := json.Unmarshal([]byte(durationsJSON), &b.Durations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal duration samples: %w", err)
	}
	if err := json.Unmarshal([]byte(tokensJSON), &b.Tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token samples: %w", err)
	}
	if err := json.Unmarshal([]byte(costsJSON), &b.Costs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cost samples: %w", err)
	}

	return b, nil
}

// List returns up to limit persisted baselines, newest version first.
// A limit of zero or less returns all of them.
func (d *DB) List(ctx context.Context, limit int) ([]*pipeline.Baseline, error) {
	if limit <= 0 {
		limit = -1 // a negative LIMIT disables the cap in SQLite
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.listStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}
	defer rows.Close()

	var baselines []*pipeline.Baseline
	for rows.Next() {
		var (
			version       int
			establishedAt int64
			sampleCount   int
			durationsJSON string
			tokensJSON    string
			costsJSON     string
			charEntropy   float64
			wordEntropy   float64
		)

		if err := rows.Scan(
			&version,
			&establishedAt,
			&sampleCount,
			&durationsJSON,
			&tokensJSON,
			&costsJSON,
			&charEntropy,
			&wordEntropy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		b := &pipeline.Baseline{
			Version:       version,
			EstablishedAt: time.Unix(establishedAt, 0).UTC(),
			SampleCount:   sampleCount,
			CharEntropy:   charEntropy,
			WordEntropy:   wordEntropy,
		}
		if err := json.Unmarshal([]byte(durationsJSON), &b.Durations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal duration samples: %w", err)
		}
		if err := json.Unmarshal([]byte(tokensJSON), &b.Tokens); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token samples: %w", err)
		}
		if err := json.Unmarshal([]byte(costsJSON), &b.Costs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cost samples: %w", err)
		}

		baselines = append(baselines, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return baselines, nil
}

// Close releases the database handle. Close is idempotent and safe to
// call multiple times.
func (d *DB) Close() error {
	var closeErr error

	d.closeOnce.Do(func() {
		if d.saveStmt != nil {
			d.saveStmt.Close()
		}
		if d.latestStmt != nil {
			d.latestStmt.Close()
		}
		if d.listStmt != nil {
			d.listStmt.Close()
		}

		if d.db != nil {
			// Fold the WAL back into the main file before closing
			_, _ = d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = d.db.Close()
		}
	})

	return closeErr
}
