package capture

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Frame is one captured wire frame.
type Frame struct {
	ID        int64
	At        time.Time
	Direction Direction
	Len       int
	Hex       string
}

type EventKind string

const (
	EventLink EventKind = "link"
	EventConn EventKind = "conn"
)

// LinkEvent is a captured link or serial connection status change.
type LinkEvent struct {
	ID        int64
	At        time.Time
	Kind      EventKind
	Mode      string
	Connected bool
	Pairing   bool
	Detail    string
}

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) InsertFrame(ctx context.Context, f Frame) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO frames(at, direction, len, hex)
		VALUES(?, ?, ?, ?)
	`,
		timeToUnixMillis(f.At),
		string(f.Direction),
		f.Len,
		f.Hex,
	)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}

	return nil
}

func (r *Repo) InsertLinkEvent(ctx context.Context, e LinkEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO link_events(at, kind, mode, connected, pairing, detail)
		VALUES(?, ?, ?, ?, ?, ?)
	`,
		timeToUnixMillis(e.At),
		string(e.Kind),
		nullableString(e.Mode),
		boolToInt(e.Connected),
		boolToInt(e.Pairing),
		nullableString(e.Detail),
	)
	if err != nil {
		return fmt.Errorf("insert link event: %w", err)
	}

	return nil
}

// ListRecentFrames returns up to limit frames, newest first.
func (r *Repo) ListRecentFrames(ctx context.Context, limit int) ([]Frame, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, at, direction, len, hex
		FROM frames
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Frame
	for rows.Next() {
		var (
			f   Frame
			at  int64
			dir string
		)
		if err := rows.Scan(&f.ID, &at, &dir, &f.Len, &f.Hex); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.At = unixMillisToTime(at)
		f.Direction = Direction(dir)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}

	return out, nil
}

// ListLinkEvents returns up to limit link events, newest first.
func (r *Repo) ListLinkEvents(ctx context.Context, limit int) ([]LinkEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, at, kind, mode, connected, pairing, detail
		FROM link_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query link events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LinkEvent
	for rows.Next() {
		var (
			e                  LinkEvent
			at                 int64
			kind               string
			mode, detail       sql.NullString
			connected, pairing int
		)
		if err := rows.Scan(&e.ID, &at, &kind, &mode, &connected, &pairing, &detail); err != nil {
			return nil, fmt.Errorf("scan link event: %w", err)
		}
		e.At = unixMillisToTime(at)
		e.Kind = EventKind(kind)
		e.Mode = mode.String
		e.Connected = connected != 0
		e.Pairing = pairing != 0
		e.Detail = detail.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link events: %w", err)
	}

	return out, nil
}

// Trim keeps the newest maxRows frames and returns how many were deleted.
func (r *Repo) Trim(ctx context.Context, maxRows int) (int64, error) {
	if maxRows <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM frames
		WHERE id <= (SELECT id FROM frames ORDER BY id DESC LIMIT 1 OFFSET ?)
	`, maxRows)
	if err != nil {
		return 0, fmt.Errorf("trim frames: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim frames rows affected: %w", err)
	}

	return n, nil
}

//goland:noinspection SqlWithoutWhere
var clearStatements = []string{
	`DELETE FROM frames;`,
	`DELETE FROM link_events;`,
}

func (r *Repo) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear capture tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range clearStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear capture tables: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear capture tx: %w", err)
	}

	return nil
}
