package infra

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"autocomplete-extractor/extractor/domain"
)

// SQLiteCheckpoint persiste snapshots da exploração em SQLite, suficientes
// para retomar uma execução sem reconsultar prefixos já esgotados.
//
// Cada processo grava sob um run id (ULID); Load devolve o run mais recente.
type SQLiteCheckpoint struct {
	db    *sql.DB
	runID string
}

// NewSQLiteCheckpoint abre (ou cria) o banco no caminho dado e inicia um run
// novo.
func NewSQLiteCheckpoint(dbPath string) (*SQLiteCheckpoint, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &SQLiteCheckpoint{
		db:    db,
		runID: ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String(),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// RunID identifica os snapshots desta execução.
func (s *SQLiteCheckpoint) RunID() string { return s.runID }

func (s *SQLiteCheckpoint) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS names (
		run_id  TEXT NOT NULL REFERENCES runs(id),
		version TEXT NOT NULL,
		name    TEXT NOT NULL,
		PRIMARY KEY (run_id, version, name)
	);

	CREATE TABLE IF NOT EXISTS frontier (
		run_id     TEXT NOT NULL REFERENCES runs(id),
		version    TEXT NOT NULL,
		prefix     TEXT NOT NULL,
		attempts   INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, version, prefix)
	);

	CREATE TABLE IF NOT EXISTS counters (
		run_id   TEXT NOT NULL REFERENCES runs(id),
		version  TEXT NOT NULL,
		requests INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, version)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save implementa domain.CheckpointStore: substitui a fronteira do run e
// acumula nomes/contadores, tudo em uma transação.
func (s *SQLiteCheckpoint) Save(ctx context.Context, snap domain.Snapshot) error {
	takenAt := snap.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	at := takenAt.UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		s.runID, at, at); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM frontier WHERE run_id = ?`, s.runID); err != nil {
		return fmt.Errorf("clear frontier: %w", err)
	}
	for _, e := range snap.Frontier {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO frontier (run_id, version, prefix, attempts) VALUES (?, ?, ?, ?)`,
			s.runID, string(e.Version), e.Prefix, e.Attempts); err != nil {
			return fmt.Errorf("insert frontier entry: %w", err)
		}
	}

	for v, names := range snap.Names {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO names (run_id, version, name) VALUES (?, ?, ?)`,
				s.runID, string(v), name); err != nil {
				return fmt.Errorf("insert name: %w", err)
			}
		}
	}

	for v, reqs := range snap.Requests {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counters (run_id, version, requests) VALUES (?, ?, ?)
			 ON CONFLICT(run_id, version) DO UPDATE SET requests = excluded.requests`,
			s.runID, string(v), reqs); err != nil {
			return fmt.Errorf("upsert counters: %w", err)
		}
	}

	return tx.Commit()
}

// Load implementa domain.CheckpointStore: devolve o snapshot mais recente de
// qualquer run, e passa a gravar sob aquele run (retomada).
func (s *SQLiteCheckpoint) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	var (
		runID     string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, updated_at FROM runs ORDER BY updated_at DESC, id DESC LIMIT 1`).
		Scan(&runID, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load run: %w", err)
	}

	snap := domain.Snapshot{
		Names:    make(map[domain.Version][]string),
		Requests: make(map[domain.Version]int64),
	}
	if at, perr := time.Parse(time.RFC3339Nano, updatedAt); perr == nil {
		snap.TakenAt = at
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT version, prefix, attempts FROM frontier WHERE run_id = ? ORDER BY version, prefix`, runID)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load frontier: %w", err)
	}
	for rows.Next() {
		var (
			v        string
			prefix   string
			attempts int
		)
		if err := rows.Scan(&v, &prefix, &attempts); err != nil {
			rows.Close()
			return domain.Snapshot{}, false, fmt.Errorf("scan frontier: %w", err)
		}
		snap.Frontier = append(snap.Frontier, domain.Entry{
			Version:  domain.Version(v),
			Prefix:   prefix,
			Attempts: attempts,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("iterate frontier: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT version, name FROM names WHERE run_id = ? ORDER BY version, name`, runID)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load names: %w", err)
	}
	for rows.Next() {
		var v, name string
		if err := rows.Scan(&v, &name); err != nil {
			rows.Close()
			return domain.Snapshot{}, false, fmt.Errorf("scan name: %w", err)
		}
		snap.Names[domain.Version(v)] = append(snap.Names[domain.Version(v)], name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("iterate names: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT version, requests FROM counters WHERE run_id = ?`, runID)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load counters: %w", err)
	}
	for rows.Next() {
		var (
			v    string
			reqs int64
		)
		if err := rows.Scan(&v, &reqs); err != nil {
			rows.Close()
			return domain.Snapshot{}, false, fmt.Errorf("scan counters: %w", err)
		}
		snap.Requests[domain.Version(v)] = reqs
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("iterate counters: %w", err)
	}

	// snapshots futuros continuam o run retomado
	s.runID = runID
	return snap, true, nil
}

// Close implementa domain.CheckpointStore.
func (s *SQLiteCheckpoint) Close() error {
	return s.db.Close()
}
