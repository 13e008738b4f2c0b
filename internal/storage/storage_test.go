package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sage.json"), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGameLifecycle(t *testing.T) {
	s := newStorage(t)

	if _, err := s.GameByChannel("g", "c"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("GameByChannel on empty store = %v, want ErrGameNotFound", err)
	}

	game := Game{Name: "Abomination Vaults", System: "pf2e", GuildID: "g", ChannelID: "c", GMID: "gm"}
	if err := s.CreateGame(game); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	if err := s.CreateGame(game); !errors.Is(err, ErrGameExists) {
		t.Errorf("second CreateGame() = %v, want ErrGameExists", err)
	}

	got, err := s.GameByChannel("g", "c")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != game.Name || got.ID == "" || got.CreatedAt.IsZero() {
		t.Errorf("GameByChannel() = %+v", got)
	}
	if !got.IsGameMaster("gm") || got.IsGameMaster("someone") {
		t.Error("IsGameMaster mismatch")
	}

	got.Players = append(got.Players, "p1")
	if err := s.SaveGame(got); err != nil {
		t.Fatal(err)
	}
	again, _ := s.GameByChannel("g", "c")
	if !again.HasPlayer("p1") {
		t.Error("SaveGame did not persist players")
	}

	if err := s.ArchiveGame("g", "c"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GameByChannel("g", "c"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("archived game still active: %v", err)
	}
	if err := s.ArchiveGame("g", "c"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("archiving twice = %v, want ErrGameNotFound", err)
	}

	games, err := s.ListGames("g")
	if err != nil || len(games) != 1 || !games[0].Archived {
		t.Errorf("ListGames() = %+v, %v", games, err)
	}

	if err := s.CreateGame(game); err != nil {
		t.Errorf("CreateGame after archive = %v, want nil", err)
	}
}

func TestCreateGameRequiresChannel(t *testing.T) {
	s := newStorage(t)
	if err := s.CreateGame(Game{Name: "x"}); err == nil {
		t.Error("CreateGame without channel should fail")
	}
}

func TestCommandHistoryIsBounded(t *testing.T) {
	s := newStorage(t)
	for i := 0; i < commandHistoryLimit+5; i++ {
		if err := s.AppendCommandToHistory("g", CommandHistoryRecord{Command: fmt.Sprintf("c%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	history, err := s.FetchCommandHistory("g")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != commandHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(history), commandHistoryLimit)
	}
	if history[0].Command != "c5" {
		t.Errorf("oldest kept = %q, want c5", history[0].Command)
	}
}

func TestCommandHashes(t *testing.T) {
	s := newStorage(t)

	got, err := s.CommandHashes("g")
	if err != nil || len(got) != 0 {
		t.Fatalf("CommandHashes() on empty store = %v, %v", got, err)
	}
	if err := s.SetCommandHashes("g", map[string]string{"ping": "abc"}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.CommandHashes("g")
	got["ping"] = "mutated"
	again, _ := s.CommandHashes("g")
	if again["ping"] != "abc" {
		t.Errorf("CommandHashes() = %v, want a copy with ping=abc", again)
	}
}

// memBackend stores JSON like the real backends so type round-trips match.
type memBackend map[string][]byte

func (m memBackend) Get(key string, out any) (bool, error) {
	data, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, out)
}

func (m memBackend) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m[key] = data
	return nil
}

func (m memBackend) Close() error { return nil }

func TestCustomBackend(t *testing.T) {
	b := memBackend{}
	s := NewWithBackend(b)

	if err := s.CreateGame(Game{Name: "Gloomhaven", ChannelID: "c"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := b["guild:@dm"]; !ok {
		t.Errorf("keys = %v, want guild:@dm", b)
	}
	game, err := s.GameByChannel("", "c")
	if err != nil || game.Name != "Gloomhaven" {
		t.Errorf("GameByChannel() = %+v, %v", game, err)
	}
}
