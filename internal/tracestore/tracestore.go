// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/tracestore/tracestore.go
// Summary: SQLite-backed trace of coordination events.
//
// Events are appended asynchronously in batches so tracing stays off
// the arbitration hot path. Queries filter by participant, event type,
// and time range.

package tracestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one traced coordination event.
type Entry struct {
	Type          string
	ParticipantID string
	Timestamp     time.Time
	Details       map[string]interface{}
}

// Filter narrows a Query. Zero values match everything.
type Filter struct {
	ParticipantID string
	Type          string
	Since         time.Time
	Until         time.Time
	Limit         int
}

// Config holds trace store tuning.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of entries to accumulate before flushing.
	// Default: 50
	BatchSize int

	// BatchTimeout is how long to wait before flushing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async append channel.
	// Default: 500
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     50,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 500,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL,
    participant TEXT NOT NULL DEFAULT '',
    timestamp INTEGER NOT NULL,     -- UnixNano
    details TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_participant ON events(participant);
`

// Store appends and queries traced events.
type Store struct {
	config Config
	db     *sql.DB

	batchChan chan Entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	mu sync.RWMutex
}

// Open creates or opens a trace store at the given path.
func Open(dbPath string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(dbPath))
}

// OpenWithConfig opens a trace store with custom configuration.
func OpenWithConfig(config Config) (*Store, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 2 * time.Second
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 500
	}

	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{
		config:    config,
		db:        db,
		batchChan: make(chan Entry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}

	go s.batchWriter()

	return s, nil
}

// Append queues an event for writing. Appends never block; when the
// buffer is full the entry is dropped.
func (s *Store) Append(e Entry) {
	if e.Type == "" {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case s.batchChan <- e:
	case <-s.stopCh:
	default:
	}
}

// batchWriter runs in a background goroutine, batching entries and
// flushing periodically.
func (s *Store) batchWriter() {
	defer close(s.doneCh)

	batch := make([]Entry, 0, s.config.BatchSize)
	timer := time.NewTimer(s.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.batchChan:
			batch = append(batch, e)
			if len(batch) >= s.config.BatchSize {
				flush()
				timer.Reset(s.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(s.config.BatchTimeout)

		case done := <-s.flushCh:
			draining := true
			for draining {
				select {
				case e := <-s.batchChan:
					batch = append(batch, e)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-s.stopCh:
			for {
				select {
				case e := <-s.batchChan:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flushBatch writes a batch of entries in a single transaction.
func (s *Store) flushBatch(batch []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("[TRACE] Failed to begin transaction: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO events (type, participant, timestamp, details) VALUES (?, ?, ?, ?)")
	if err != nil {
		log.Printf("[TRACE] Failed to prepare statement: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		details := "{}"
		if len(e.Details) > 0 {
			if data, err := json.Marshal(e.Details); err == nil {
				details = string(data)
			}
		}
		if _, err := stmt.Exec(e.Type, e.ParticipantID, e.Timestamp.UnixNano(), details); err != nil {
			log.Printf("[TRACE] Failed to insert event: %v", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[TRACE] Failed to commit batch: %v", err)
	}
}

// Query returns traced events matching the filter, newest first.
func (s *Store) Query(f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT type, participant, timestamp, details FROM events WHERE 1=1"
	var args []interface{}

	if f.ParticipantID != "" {
		query += " AND participant = ?"
		args = append(args, f.ParticipantID)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, f.Until.UnixNano())
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("trace query failed: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var e Entry
		var tsNano int64
		var details string
		if err := rows.Scan(&e.Type, &e.ParticipantID, &tsNano, &details); err != nil {
			continue
		}
		e.Timestamp = time.Unix(0, tsNano)
		if details != "" && details != "{}" {
			var m map[string]interface{}
			if err := json.Unmarshal([]byte(details), &m); err == nil {
				e.Details = m
			}
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Count returns the total number of traced events.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// Flush blocks until all pending entries are written.
func (s *Store) Flush() {
	done := make(chan struct{})
	select {
	case s.flushCh <- done:
		<-done
	case <-s.stopCh:
	}
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return s.db.Close()
}
