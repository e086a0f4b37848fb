// Package tracestore persists trace events in a SQLite database.
package tracestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	_ "modernc.org/sqlite"

	"github.com/funvibe/calltrace/internal/sink"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	session  TEXT    NOT NULL,
	unit     INTEGER NOT NULL,
	byte_off INTEGER NOT NULL,
	file     TEXT    NOT NULL DEFAULT '',
	line     INTEGER NOT NULL DEFAULT 0,
	col      INTEGER NOT NULL DEFAULT 0,
	receiver TEXT    NOT NULL,
	args     TEXT    NOT NULL,
	result   TEXT    NOT NULL,
	at       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS events_session_unit ON events(session, unit);
`

// Store is a sink.Sink writing to SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and migrates its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace store %s: %w", path, err)
	}
	// SQLite allows one writer; serialising here avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating trace store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Write implements sink.Sink.
func (s *Store) Write(ctx context.Context, ev sink.Event) error {
	args, err := encodeArgs(ev.Args)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (session, unit, byte_off, file, line, col, receiver, args, result, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Session, ev.Unit, ev.Offset, ev.File, ev.Line, ev.Column,
		ev.Receiver, args, ev.Result, ev.Time.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing trace event: %w", err)
	}
	return nil
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Session string
	Unit    *int
	Limit   int
}

// Query returns matching events in insertion order.
func (s *Store) Query(ctx context.Context, f Filter) ([]sink.Event, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Session != "" {
		where = append(where, "session = ?")
		args = append(args, f.Session)
	}
	if f.Unit != nil {
		where = append(where, "unit = ?")
		args = append(args, *f.Unit)
	}

	q := "SELECT session, unit, byte_off, file, line, col, receiver, args, result, at FROM events"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trace store: %w", err)
	}
	defer rows.Close()

	var events []sink.Event
	for rows.Next() {
		var (
			ev      sink.Event
			rawArgs string
			rawTime string
		)
		if err := rows.Scan(&ev.Session, &ev.Unit, &ev.Offset, &ev.File, &ev.Line, &ev.Column,
			&ev.Receiver, &rawArgs, &ev.Result, &rawTime); err != nil {
			return nil, fmt.Errorf("reading trace event: %w", err)
		}
		if ev.Args, err = decodeArgs(rawArgs); err != nil {
			return nil, err
		}
		if ev.Time, err = time.Parse(time.RFC3339Nano, rawTime); err != nil {
			return nil, fmt.Errorf("reading trace event time: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Sessions lists the recorded session ids with their event counts.
func (s *Store) Sessions(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT session, COUNT(*) FROM events GROUP BY session")
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeArgs(args []string) (string, error) {
	vals := make([]*structpb.Value, len(args))
	for i, a := range args {
		vals[i] = structpb.NewStringValue(a)
	}
	b, err := protojson.Marshal(&structpb.ListValue{Values: vals})
	if err != nil {
		return "", fmt.Errorf("encoding arguments: %w", err)
	}
	return string(b), nil
}

func decodeArgs(raw string) ([]string, error) {
	var list structpb.ListValue
	if err := protojson.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	out := make([]string, len(list.Values))
	for i, v := range list.Values {
		out[i] = v.GetStringValue()
	}
	return out, nil
}
