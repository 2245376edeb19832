package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/tuning"
	"voxelworld.ai/internal/sim/world"
)

// SQLiteIndex is a read model of persisted chunks and applied mutations.
// The chunk files stay the source of truth; rows are written by a single
// goroutine and dropped when it falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropChunk    atomic.Uint64
	dropMutation atomic.Uint64
}

type reqKind int

const (
	reqChunk reqKind = iota + 1
	reqMutation
)

type req struct {
	kind reqKind
	at   string

	chunk    world.ChunkEntry
	mutation world.MutationEntry
}

const defaultQueue = 65536

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, defaultQueue)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			stage INTEGER NOT NULL,
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			non_air INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (stage, cx, cz)
		);`,
		`CREATE TABLE IF NOT EXISTS mutations (
			seq INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block INTEGER NOT NULL,
			to_block INTEGER NOT NULL,
			reason TEXT NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_pos ON mutations(x, z, y);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_run ON mutations(run_id, frame);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func (s *SQLiteIndex) RecordChunk(e world.ChunkEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqChunk, at: now(), chunk: e}:
	default:
		// Drop if the indexer falls behind; chunktool reindex rebuilds the table.
		s.dropChunk.Add(1)
	}
}

func (s *SQLiteIndex) RecordMutation(e world.MutationEntry) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqMutation, at: now(), mutation: e}:
	default:
		s.dropMutation.Add(1)
	}
}

type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropChunkTotal    uint64
	DropMutationTotal uint64
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropChunkTotal:    s.dropChunk.Load(),
		DropMutationTotal: s.dropMutation.Load(),
	}
}

// UpsertCatalogs stores the catalogs and tuning a run was started with.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if len(cats.Blocks.Raw) > 0 {
		rows = append(rows, kv{name: "blocks", digest: cats.Blocks.Digest, json: cats.Blocks.Raw})
	}
	{
		// Canonicalize structures to stable JSON for easier querying.
		ids := make([]string, 0, len(cats.Structures.ByID))
		for id := range cats.Structures.ByID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		defs := make([]catalogs.StructureDef, 0, len(ids))
		for _, id := range ids {
			defs = append(defs, cats.Structures.ByID[id])
		}
		if b, _ := json.Marshal(defs); len(b) > 0 {
			rows = append(rows, kv{name: "structures", digest: cats.Structures.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	at := now()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), at); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceChunks rewrites the chunk rows of stage in one transaction. It
// bypasses the queue and is meant for offline reindexing.
func (s *SQLiteIndex) ReplaceChunks(stage int, entries []world.ChunkEntry) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM chunks WHERE stage=?`, stage); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO chunks(stage,cx,cz,path,digest,non_air,updated_at) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	at := now()
	for _, e := range entries {
		if _, err := stmt.Exec(stage, e.CX, e.CZ, e.Path, e.Digest, e.NonAir, at); err != nil {
			return fmt.Errorf("chunk %d,%d: %w", e.CX, e.CZ, err)
		}
	}
	return tx.Commit()
}

// Chunks lists the chunk rows of stage ordered by coordinate.
func (s *SQLiteIndex) Chunks(stage int) ([]world.ChunkEntry, error) {
	rows, err := s.db.Query(`SELECT cx,cz,path,digest,non_air FROM chunks WHERE stage=? ORDER BY cx,cz`, stage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.ChunkEntry
	for rows.Next() {
		e := world.ChunkEntry{Stage: stage}
		if err := rows.Scan(&e.CX, &e.CZ, &e.Path, &e.Digest, &e.NonAir); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	upsertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(stage,cx,cz,path,digest,non_air,updated_at) VALUES(?,?,?,?,?,?,?)`)
	insertMutation, _ := s.db.Prepare(`INSERT INTO mutations(run_id,frame,x,y,z,from_block,to_block,reason,at) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if upsertChunk != nil {
			_ = upsertChunk.Close()
		}
		if insertMutation != nil {
			_ = insertMutation.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqChunk:
			c := r.chunk
			if upsertChunk == nil {
				break
			}
			if _, err := tx.Stmt(upsertChunk).Exec(c.Stage, c.CX, c.CZ, c.Path, c.Digest, c.NonAir, r.at); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqMutation:
			m := r.mutation
			if insertMutation == nil {
				break
			}
			if _, err := tx.Stmt(insertMutation).Exec(
				m.RunID,
				int64(m.Frame),
				m.Pos[0], m.Pos[1], m.Pos[2],
				int64(m.From),
				int64(m.To),
				m.Reason,
				r.at,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
