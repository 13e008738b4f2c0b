// Package sagetest provides an in-memory sage.Session for tests.
package sagetest

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Reaction is a recorded MessageReactionAdd call.
type Reaction struct {
	ChannelID, MessageID, Emoji string
}

// Session records outbound calls and lets tests fire events at handlers
// registered through AddHandler.
type Session struct {
	mu sync.Mutex

	// Messages can be fetched with ChannelMessage; sent messages are added.
	Messages  map[string]*discordgo.Message
	Sent      []*discordgo.MessageSend
	Deleted   []string
	Reactions []Reaction
	Responses []*discordgo.InteractionResponse
	// BotID authors messages sent through this session.
	BotID string
	// Err, when set, fails every outbound call.
	Err error

	handlers  map[int]interface{}
	nextID    int
	msgSeq    int
	sentCh    chan *discordgo.MessageSend
	reactedCh chan Reaction
}

// New returns an empty session whose sent messages are authored by botID.
func New(botID string) *Session {
	return &Session{
		Messages: map[string]*discordgo.Message{},
		BotID:    botID,
		handlers: map[int]interface{}{},
		sentCh:   make(chan *discordgo.MessageSend, 16),

		reactedCh: make(chan Reaction, 16),
	}
}

func (s *Session) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	m, ok := s.Messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s not found", messageID)
	}
	return m, nil
}

func (s *Session) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content}, options...)
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	if s.Err != nil {
		s.mu.Unlock()
		return nil, s.Err
	}
	s.msgSeq++
	msg := &discordgo.Message{
		ID:        fmt.Sprintf("sent-%d", s.msgSeq),
		ChannelID: channelID,
		Content:   data.Content,
		Author:    &discordgo.User{ID: s.BotID, Bot: true},
	}
	s.Messages[msg.ID] = msg
	s.Sent = append(s.Sent, data)
	s.mu.Unlock()

	select {
	case s.sentCh <- data:
	default:
	}
	return msg, nil
}

func (s *Session) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.Messages, messageID)
	s.Deleted = append(s.Deleted, messageID)
	return nil
}

func (s *Session) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	if s.Err != nil {
		s.mu.Unlock()
		return s.Err
	}
	r := Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emojiID}
	s.Reactions = append(s.Reactions, r)
	s.mu.Unlock()

	select {
	case s.reactedCh <- r:
	default:
	}
	return nil
}

func (s *Session) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Responses = append(s.Responses, resp)
	return nil
}

// AddHandler registers a func(*discordgo.Session, *T) handler.
func (s *Session) AddHandler(handler interface{}) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.handlers[id] = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

// HandlerCount returns the number of attached handlers.
func (s *Session) HandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Fire calls every attached handler whose event type matches event.
func (s *Session) Fire(event interface{}) {
	s.mu.Lock()
	var matching []reflect.Value
	for _, h := range s.handlers {
		v := reflect.ValueOf(h)
		if v.Kind() == reflect.Func && v.Type().NumIn() == 2 && v.Type().In(1) == reflect.TypeOf(event) {
			matching = append(matching, v)
		}
	}
	s.mu.Unlock()

	for _, v := range matching {
		v.Call([]reflect.Value{reflect.Zero(v.Type().In(0)), reflect.ValueOf(event)})
	}
}

// WaitSent blocks until a message is sent and returns it.
func (s *Session) WaitSent() *discordgo.MessageSend {
	return <-s.sentCh
}

// WaitReaction blocks until the bot adds a reaction and returns it.
func (s *Session) WaitReaction() Reaction {
	return <-s.reactedCh
}

// SentContents returns the content of every sent message.
func (s *Session) SentContents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Sent))
	for i, m := range s.Sent {
		out[i] = m.Content
	}
	return out
}

// ResponseCount returns the number of interaction responses.
func (s *Session) ResponseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Responses)
}
