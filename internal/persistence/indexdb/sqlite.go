package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"gridfactory.ai/internal/logging"
	"gridfactory.ai/internal/persistence/snapshot"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/tuning"
	"gridfactory.ai/internal/sim/world"
)

var log = logging.Component("indexdb")

// ErrNoSave is returned by LatestSave when a world has never been saved.
var ErrNoSave = errors.New("no save recorded")

// SQLiteIndex is a queryable read-model of ticks, events and saves. The
// JSONL logs and save files stay authoritative; writes are queued and
// dropped when the writer falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvents
	reqSave
)

type req struct {
	kind reqKind

	tick   world.TickLogEntry
	events []world.Event
	save   SaveRow
}

// SaveRow describes one save file on disk.
type SaveRow struct {
	SaveID     string
	WorldID    string
	Tick       uint64
	Path       string
	Seed       int64
	Structures int
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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
		ch: make(chan req, 65536),
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
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			cmd_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_kind_tick ON commands(kind, tick);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			type TEXT NOT NULL,
			structure_id INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			item TEXT NOT NULL,
			count INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_tick ON events(type, tick);`,
		`CREATE TABLE IF NOT EXISTS saves (
			save_id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			structures INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_world_tick ON saves(world_id, tick);`,
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
		if n := s.dropped.Load(); n > 0 {
			log.WithField("dropped", n).Warn("index writer dropped requests")
		}
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// WriteTick makes the index usable as a world.TickLogger.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	s.enqueue(req{kind: reqTick, tick: entry})
	return nil
}

func (s *SQLiteIndex) WriteEvents(events []world.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.enqueue(req{kind: reqEvents, events: events})
	return nil
}

// RecordSave indexes a save written to path. snap.Header.SaveID must be set.
func (s *SQLiteIndex) RecordSave(path string, snap snapshot.SnapshotV1) {
	if snap.Header.SaveID == "" {
		return
	}
	s.enqueue(req{kind: reqSave, save: SaveRow{
		SaveID:     snap.Header.SaveID,
		WorldID:    snap.Header.WorldID,
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Config.Seed,
		Structures: len(snap.Structures),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
}

// LatestSave returns the newest save of worldID by tick.
func (s *SQLiteIndex) LatestSave(ctx context.Context, worldID string) (SaveRow, error) {
	var r SaveRow
	var tick int64
	row := s.db.QueryRowContext(ctx,
		`SELECT save_id,world_id,tick,path,seed,structures,recorded_at FROM saves
		 WHERE world_id=? ORDER BY tick DESC, recorded_at DESC LIMIT 1`, worldID)
	err := row.Scan(&r.SaveID, &r.WorldID, &tick, &r.Path, &r.Seed, &r.Structures, &r.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("world %q: %w", worldID, ErrNoSave)
	}
	r.Tick = uint64(tick)
	return r, err
}

// UpsertCatalogs stores the catalogs and tuning the server runs with, keyed by digest.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, file, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	read("items", "items.json", cats.Items.DefsDigest)
	read("structures", "structures.json", cats.Structures.Digest)
	read("recipes", "recipes.json", cats.Recipes.Digest)
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	if b, _ := json.Marshal(tune); len(b) > 0 {
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
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
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,commands,raw_json) VALUES(?,?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(tick,seq,kind,x,y,cmd_json) VALUES(?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT INTO events(tick,type,structure_id,x,y,item,count) VALUES(?,?,?,?,?,?,?)`)
	insertSave, _ := s.db.Prepare(`INSERT OR REPLACE INTO saves(save_id,world_id,tick,path,seed,structures,recorded_at) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertCommand, insertEvent, insertSave} {
			if st != nil {
				_ = st.Close()
			}
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
			log.WithError(err).Warn("begin tx")
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
		if err := tx.Commit(); err != nil {
			log.WithError(err).Warn("commit")
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		log.WithError(err).Warn("index write failed; rolling back batch")
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback(err)
			return false
		}
		opCount++
		return true
	}

	// Idle batches are committed on a timer so readers never wait on an
	// open write transaction for long.
	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()

	for {
		var r req
		var ok bool
		select {
		case r, ok = <-s.ch:
			if !ok {
				commit()
				return
			}
		case <-ticker.C:
			commit()
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			raw, _ := json.Marshal(r.tick)
			if !exec(insertTick, int64(r.tick.Tick), r.tick.Digest, len(r.tick.Commands), string(raw)) {
				continue
			}
			for i, c := range r.tick.Commands {
				cj, _ := json.Marshal(c)
				if !exec(insertCommand, int64(r.tick.Tick), i, c.Kind, c.Pos.X, c.Pos.Y, string(cj)) {
					break
				}
			}

		case reqEvents:
			for _, e := range r.events {
				if !exec(insertEvent, int64(e.Tick), e.Type, int64(e.StructureID), e.Pos.X, e.Pos.Y, e.Item, e.Count) {
					break
				}
			}

		case reqSave:
			sv := r.save
			exec(insertSave, sv.SaveID, sv.WorldID, int64(sv.Tick), sv.Path, sv.Seed, sv.Structures, sv.RecordedAt)
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
