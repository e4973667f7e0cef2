package capture

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "capture.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenMigratesAndReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "capture.db")

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_ = db.Close()

	db, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer func() { _ = db.Close() }()

	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, version)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "capture.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.ExecContext(ctx, `PRAGMA user_version = 99;`); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_ = raw.Close()

	if db, err := Open(ctx, path); err == nil {
		_ = db.Close()
		t.Fatalf("expected error for newer schema")
	}
}

func TestRepoFramesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)

	if err := repo.InsertFrame(ctx, Frame{At: at, Direction: DirectionOut, Len: 4, Hex: "55020000"}); err != nil {
		t.Fatalf("insert frame: %v", err)
	}
	if err := repo.InsertFrame(ctx, Frame{At: at.Add(time.Millisecond), Direction: DirectionIn, Len: 5, Hex: "5503000100"}); err != nil {
		t.Fatalf("insert frame: %v", err)
	}

	frames, err := repo.ListRecentFrames(ctx, 10)
	if err != nil {
		t.Fatalf("list frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Direction != DirectionIn || frames[0].Hex != "5503000100" || frames[0].Len != 5 {
		t.Fatalf("unexpected newest frame %+v", frames[0])
	}
	if !frames[1].At.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, frames[1].At)
	}
}

func TestRepoLinkEventsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))

	in := LinkEvent{At: time.UnixMilli(1_700_000_000_000), Kind: EventLink, Mode: "ble2", Connected: true}
	if err := repo.InsertLinkEvent(ctx, in); err != nil {
		t.Fatalf("insert link event: %v", err)
	}
	if err := repo.InsertLinkEvent(ctx, LinkEvent{At: time.UnixMilli(1_700_000_000_500), Kind: EventConn, Detail: "reconnecting /dev/ttyUSB0@460800"}); err != nil {
		t.Fatalf("insert conn event: %v", err)
	}

	got, err := repo.ListLinkEvents(ctx, 10)
	if err != nil {
		t.Fatalf("list link events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Kind != EventConn || got[0].Mode != "" || got[0].Detail == "" {
		t.Fatalf("unexpected conn event %+v", got[0])
	}
	if got[1].Kind != EventLink || got[1].Mode != "ble2" || !got[1].Connected || got[1].Pairing {
		t.Fatalf("unexpected link event %+v", got[1])
	}
}

func TestRepoTrimKeepsNewest(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))

	for i := 0; i < 10; i++ {
		if err := repo.InsertFrame(ctx, Frame{At: time.Now(), Direction: DirectionOut, Len: 1, Hex: string(rune('A' + i))}); err != nil {
			t.Fatalf("insert frame %d: %v", i, err)
		}
	}

	n, err := repo.Trim(ctx, 4)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 deleted rows, got %d", n)
	}
	frames, err := repo.ListRecentFrames(ctx, 100)
	if err != nil {
		t.Fatalf("list frames: %v", err)
	}
	if len(frames) != 4 || frames[0].Hex != "J" || frames[3].Hex != "G" {
		t.Fatalf("unexpected frames after trim: %+v", frames)
	}

	if n, err := repo.Trim(ctx, 4); err != nil || n != 0 {
		t.Fatalf("second trim: n=%d err=%v", n, err)
	}
}

func TestRepoClear(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))

	_ = repo.InsertFrame(ctx, Frame{At: time.Now(), Direction: DirectionIn, Len: 1, Hex: "55"})
	_ = repo.InsertLinkEvent(ctx, LinkEvent{At: time.Now(), Kind: EventLink})

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	frames, _ := repo.ListRecentFrames(ctx, 10)
	evs, _ := repo.ListLinkEvents(ctx, 10)
	if len(frames) != 0 || len(evs) != 0 {
		t.Fatalf("expected empty capture, got %d frames %d events", len(frames), len(evs))
	}
}
