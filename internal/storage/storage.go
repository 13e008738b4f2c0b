package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/keshon/rpg-sage/internal/datastore"
	"go.uber.org/zap"
)

const commandHistoryLimit int = 20

var (
	ErrGameNotFound = errors.New("no game in this channel")
	ErrGameExists   = errors.New("channel already has an active game")
)

// Game is a tabletop session bound to one channel.
type Game struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	System    string    `json:"system"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	GMID      string    `json:"gm_id"`
	Players   []string  `json:"players"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPlayer reports whether userID plays in the game.
func (g *Game) HasPlayer(userID string) bool {
	for _, p := range g.Players {
		if p == userID {
			return true
		}
	}
	return false
}

// IsGameMaster reports whether userID runs the game.
func (g *Game) IsGameMaster(userID string) bool {
	return g.GMID != "" && g.GMID == userID
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

// Record is everything stored for one guild.
type Record struct {
	Games               map[string]Game        `json:"games"` // key = channelID
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	// CommandHashes maps synced application command names to their definition hash.
	CommandHashes map[string]string `json:"command_hashes,omitempty"`
}

// Backend is the key/value store records are kept in. Values round-trip
// through JSON.
type Backend interface {
	Get(key string, out any) (bool, error)
	Put(key string, value any) error
	Close() error
}

// Storage is the typed view over a Backend. Writes follow read, mutate,
// save; the last writer wins.
type Storage struct {
	ds Backend
	mu sync.Mutex
}

// New opens the datastore file at path.
func New(path string, log *zap.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(path)
	if log != nil {
		cfg.Logger = log
	}
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithBackend wraps an already opened backend.
func NewWithBackend(b Backend) *Storage {
	return &Storage{ds: b}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func guildKey(guildID string) string {
	if guildID == "" {
		return "guild:@dm"
	}
	return "guild:" + guildID
}

// getOrCreateGuildRecord must be called with s.mu held.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildKey(guildID), &record); err != nil {
		return nil, fmt.Errorf("error loading guild record: %w", err)
	}
	if record.Games == nil {
		record.Games = map[string]Game{}
	}
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	return &record, nil
}

func (s *Storage) update(guildID string, mutate func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	if err := mutate(record); err != nil {
		return err
	}
	return s.ds.Put(guildKey(guildID), record)
}

// GameByChannel returns the active game for a channel or ErrGameNotFound.
func (s *Storage) GameByChannel(guildID, channelID string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	game, ok := record.Games[channelID]
	if !ok || game.Archived {
		return nil, ErrGameNotFound
	}
	return &game, nil
}

// CreateGame binds a new game to its channel.
func (s *Storage) CreateGame(game Game) error {
	if game.ChannelID == "" {
		return fmt.Errorf("game has no channel")
	}
	return s.update(game.GuildID, func(r *Record) error {
		if existing, ok := r.Games[game.ChannelID]; ok && !existing.Archived {
			return ErrGameExists
		}
		if game.CreatedAt.IsZero() {
			game.CreatedAt = time.Now()
		}
		if game.ID == "" {
			game.ID = fmt.Sprintf("%s-%d", game.ChannelID, game.CreatedAt.UnixNano())
		}
		r.Games[game.ChannelID] = game
		return nil
	})
}

// SaveGame overwrites the stored copy of game.
func (s *Storage) SaveGame(game *Game) error {
	return s.update(game.GuildID, func(r *Record) error {
		r.Games[game.ChannelID] = *game
		return nil
	})
}

// ArchiveGame marks the channel's game archived.
func (s *Storage) ArchiveGame(guildID, channelID string) error {
	return s.update(guildID, func(r *Record) error {
		game, ok := r.Games[channelID]
		if !ok || game.Archived {
			return ErrGameNotFound
		}
		game.Archived = true
		r.Games[channelID] = game
		return nil
	})
}

// ListGames returns the guild's games sorted by name, archived ones included.
func (s *Storage) ListGames(guildID string) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(record.Games))
	for _, g := range record.Games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })
	return games, nil
}

// AppendCommandToHistory appends a command history record for a guild
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsHistoryList = append(r.CommandsHistoryList, command)
		if len(r.CommandsHistoryList) > commandHistoryLimit {
			r.CommandsHistoryList = r.CommandsHistoryList[len(r.CommandsHistoryList)-commandHistoryLimit:]
		}
		return nil
	})
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}

// CommandHashes returns the definition hashes of the guild's synced
// application commands.
func (s *Storage) CommandHashes(guildID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(record.CommandHashes))
	for name, h := range record.CommandHashes {
		hashes[name] = h
	}
	return hashes, nil
}

// SetCommandHashes replaces the guild's synced command hashes.
func (s *Storage) SetCommandHashes(guildID string, hashes map[string]string) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandHashes = hashes
		return nil
	})
}
