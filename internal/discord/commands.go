package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// commandAPI is the slice of *discordgo.Session used to sync application
// commands.
type commandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// HashStore remembers what was last synced to each guild.
type HashStore interface {
	CommandHashes(guildID string) (map[string]string, error)
	SetCommandHashes(guildID string, hashes map[string]string) error
}

// commandSyncer pushes the router's application commands to guilds,
// creating only what changed and deleting what is no longer registered.
type commandSyncer struct {
	api     commandAPI
	hashes  HashStore
	limiter *rate.Limiter
	log     *zap.Logger
}

// syncResult reports what one guild sync did.
type syncResult struct {
	Created []string
	Deleted []string
}

// sync makes guildID's commands match wanted. The stored hashes are saved
// even when ctx ends partway, so completed deletes and creates are kept.
func (s *commandSyncer) sync(ctx context.Context, appID, guildID string, wanted []*discordgo.ApplicationCommand) (syncResult, error) {
	var res syncResult

	wantedHashes := make(map[string]string, len(wanted))
	for _, cmd := range wanted {
		h, err := hashCommand(cmd)
		if err != nil {
			return res, err
		}
		wantedHashes[cmd.Name] = h
	}

	existing, err := s.api.ApplicationCommands(appID, guildID)
	if err != nil {
		return res, fmt.Errorf("failed to list commands: %w", err)
	}
	stored, err := s.hashes.CommandHashes(guildID)
	if err != nil {
		return res, fmt.Errorf("failed to load command hashes: %w", err)
	}
	if stored == nil {
		stored = map[string]string{}
	}

	abort := func(err error) (syncResult, error) {
		if saveErr := s.hashes.SetCommandHashes(guildID, stored); saveErr != nil {
			s.log.Error("Failed to save command hashes", zap.String("guild", guildID), zap.Error(saveErr))
		}
		return res, err
	}

	live := make(map[string]bool, len(existing))
	for _, old := range existing {
		if _, ok := wantedHashes[old.Name]; ok {
			live[old.Name] = true
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return abort(err)
		}
		if err := s.api.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
			s.log.Error("Failed to delete obsolete command", zap.String("guild", guildID), zap.String("command", old.Name), zap.Error(err))
			continue
		}
		delete(stored, old.Name)
		res.Deleted = append(res.Deleted, old.Name)
	}

	for _, cmd := range wanted {
		h := wantedHashes[cmd.Name]
		if live[cmd.Name] && stored[cmd.Name] == h {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return abort(err)
		}
		if _, err := s.api.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			s.log.Error("Failed to create command", zap.String("guild", guildID), zap.String("command", cmd.Name), zap.Error(err))
			delete(stored, cmd.Name)
			continue
		}
		stored[cmd.Name] = h
		res.Created = append(res.Created, cmd.Name)
	}

	for name := range stored {
		if _, ok := wantedHashes[name]; !ok {
			delete(stored, name)
		}
	}
	if err := s.hashes.SetCommandHashes(guildID, stored); err != nil {
		return res, fmt.Errorf("failed to save command hashes: %w", err)
	}
	return res, nil
}
