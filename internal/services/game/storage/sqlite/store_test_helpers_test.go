package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/tabletop.run/internal/services/game/domain/command"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/replay"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/integrity"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"test-key-1": []byte("0123456789abcdef0123456789abcdef")},
		"test-key-1",
	)
	if err != nil {
		t.Fatalf("create test keyring: %v", err)
	}
	return keyring
}

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	store, err := Open(context.Background(), path, opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func createTestMatch(t *testing.T, store *Store, id string) {
	t.Helper()
	if err := store.CreateMatch(context.Background(), storage.MatchRecord{
		ID:        id,
		Game:      "tally",
		Seed:      42,
		PlayerIDs: []string{"p1", "p2"},
	}); err != nil {
		t.Fatalf("create match: %v", err)
	}
}

func testRecord(t *testing.T, matchID string, seq uint64, cmdType command.Type, playerID string) replay.Record {
	t.Helper()
	cmd, err := command.New(cmdType, playerID, nil, int64(seq))
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	return replay.Record{MatchID: matchID, Seq: seq, Command: cmd, StateHash: "hash-" + string(cmdType)}
}

func appendTestCommands(t *testing.T, store *Store, matchID string, types ...command.Type) {
	t.Helper()
	for i, cmdType := range types {
		player := "p1"
		if i%2 == 1 {
			player = "p2"
		}
		if _, err := store.AppendCommand(context.Background(), testRecord(t, matchID, uint64(i+1), cmdType, player)); err != nil {
			t.Fatalf("append %s: %v", cmdType, err)
		}
	}
}
