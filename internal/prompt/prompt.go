// Package prompt asks a single user a question and waits for them to pick
// one of a fixed set of answers, by reaction or by button.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/sage"
	"go.uber.org/zap"
)

// DefaultTimeout is how long a prompt waits when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// ErrNoAnswer is returned when the prompt times out unanswered.
var ErrNoAnswer = errors.New("no answer")

// Prompter sends prompts through a session and listens for the answer
// with a handler attached only for the prompt's lifetime.
type Prompter struct {
	session sage.Session
	timeout time.Duration
	log     *zap.Logger
	seq     atomic.Uint64
}

// New returns a Prompter. A non-positive timeout uses DefaultTimeout.
func New(session sage.Session, timeout time.Duration, log *zap.Logger) *Prompter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Prompter{session: session, timeout: timeout, log: log}
}

// Timeout returns how long a prompt waits for its answer.
func (p *Prompter) Timeout() time.Duration { return p.timeout }

// AskReaction posts question, reacts with each choice and returns the first
// choice userID reacts with.
func (p *Prompter) AskReaction(ctx context.Context, channelID, userID, question string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("prompt needs at least one choice")
	}

	var msgID atomic.Pointer[string]
	answers := make(chan string, 1)
	remove := p.session.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageReactionAdd) {
		id := msgID.Load()
		if id == nil || e.MessageReaction == nil || e.MessageID != *id || e.UserID != userID {
			return
		}
		if emoji := e.Emoji.APIName(); slices.Contains(choices, emoji) {
			offer(answers, emoji)
		}
	})
	defer remove()

	msg, err := p.session.ChannelMessageSend(channelID, question)
	if err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}
	msgID.Store(&msg.ID)

	for _, choice := range choices {
		if err := p.session.MessageReactionAdd(channelID, msg.ID, choice); err != nil {
			return "", fmt.Errorf("failed to add prompt reaction %s: %w", choice, err)
		}
	}

	return p.wait(ctx, answers, userID)
}

// AskButtons posts question with one button per choice and returns the
// label userID clicks. Clicks by other users are acknowledged and ignored.
func (p *Prompter) AskButtons(ctx context.Context, channelID, userID, question string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("prompt needs at least one choice")
	}

	prefix := fmt.Sprintf("prompt-%d:", p.seq.Add(1))
	buttons := make([]discordgo.MessageComponent, len(choices))
	for i, choice := range choices {
		buttons[i] = discordgo.Button{
			Label:    choice,
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s%d", prefix, i),
		}
	}

	answers := make(chan string, 1)
	remove := p.session.AddHandler(func(_ *discordgo.Session, e *discordgo.InteractionCreate) {
		if e.Interaction == nil || sage.KindOf(e.Interaction) != sage.KindButton {
			return
		}
		rest, ok := strings.CutPrefix(e.MessageComponentData().CustomID, prefix)
		if !ok {
			return
		}
		ack := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
		if err := p.session.InteractionRespond(e.Interaction, ack); err != nil {
			p.log.Warn("Failed to acknowledge prompt button", zap.Error(err))
		}
		user := sage.InteractionUser(e.Interaction)
		if user == nil || user.ID != userID {
			return
		}
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 && i < len(choices) {
			offer(answers, choices[i])
		}
	})
	defer remove()

	_, err := p.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    question,
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}

	return p.wait(ctx, answers, userID)
}

func (p *Prompter) wait(ctx context.Context, answers <-chan string, userID string) (string, error) {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case answer := <-answers:
		return answer, nil
	case <-timer.C:
		p.log.Debug("Prompt timed out", zap.String("user", userID), zap.Duration("timeout", p.timeout))
		return "", ErrNoAnswer
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// offer keeps only the first answer.
func offer(answers chan string, answer string) {
	select {
	case answers <- answer:
	default:
	}
}
