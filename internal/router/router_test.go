package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/rpg-sage/internal/listener"
	"github.com/keshon/rpg-sage/internal/sage"
	"github.com/keshon/rpg-sage/internal/sage/sagetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T, opts ...Option) (*Router, *sagetest.Session, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	sess := sagetest.New("bot")
	r := New(&sage.Env{Session: sess, Prefix: "sage"}, zap.New(core), opts...)
	r.SetBotID("bot")
	return r, sess, logs
}

func post(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		GuildID:   "g",
		ChannelID: "c",
		Content:   content,
		Author:    &discordgo.User{ID: "u"},
	}
}

// record registers a message command whose handler appends the command
// and its unkeyed args to got.
func record(r *Router, got *[]string, command string, opts listener.Options) {
	opts.Command = command
	r.RegisterMessageListener(MessageCommand(command), func(_ context.Context, m *sage.Message, match *listener.Match) error {
		*got = append(*got, command+":"+strings.Join(match.Args.UnkeyedValues(), ","))
		if m.Command() != command {
			return errors.New("context command not set")
		}
		return nil
	}, opts)
}

func TestHandleMessagePicksMostSpecificCommand(t *testing.T) {
	r, _, _ := newTestRouter(t)
	var got []string
	record(r, &got, "pc", listener.Options{})
	record(r, &got, "pc-list", listener.Options{})
	record(r, &got, "pcs-list", listener.Options{})

	cases := map[string]string{
		"!pcs list foo": "pcs-list:foo",
		"!pc-list":      "pc-list:",
		"!pc list bar":  "pc-list:bar",
		"sage!pc baz":   "pc:baz",
	}
	for content, want := range cases {
		got = nil
		out, err := r.HandleMessage(context.Background(), post(content), nil, listener.MessagePost)
		if err != nil {
			t.Fatalf("%q: %v", content, err)
		}
		if out.Handled != 1 || len(got) != 1 || got[0] != want {
			t.Errorf("%q: handled %d, got %v, want %q", content, out.Handled, got, want)
		}
	}
}

func TestHandleMessagePriorityBeatsSpecificity(t *testing.T) {
	r, _, _ := newTestRouter(t)
	var got []string
	record(r, &got, "pc-list", listener.Options{})
	r.RegisterMessageListener(func(context.Context, *sage.Message) (*listener.Match, error) {
		return &listener.Match{}, nil
	}, func(context.Context, *sage.Message, *listener.Match) error {
		got = append(got, "catch-all")
		return nil
	}, listener.Options{Command: "catch-all", PriorityIndex: 1})

	out, err := r.HandleMessage(context.Background(), post("!pc-list"), nil, listener.MessagePost)
	if err != nil {
		t.Fatal(err)
	}
	if out != (listener.Outcome{Tested: 1, Handled: 1}) || len(got) != 1 || got[0] != "catch-all" {
		t.Errorf("outcome %+v, got %v", out, got)
	}
}

func TestHandleMessageFilters(t *testing.T) {
	r, _, _ := newTestRouter(t, WithTestBotID("tester"))
	var got []string
	record(r, &got, "ping", listener.Options{})

	bot := post("!ping")
	bot.Author = &discordgo.User{ID: "other", Bot: true}
	webhook := post("!ping")
	webhook.WebhookID = "w"
	noAuthor := post("!ping")
	noAuthor.Author = nil

	for name, msg := range map[string]*discordgo.Message{"bot": bot, "webhook": webhook, "no author": noAuthor, "nil": nil} {
		out, err := r.HandleMessage(context.Background(), msg, nil, listener.MessagePost)
		if err != nil || out != (listener.Outcome{}) {
			t.Errorf("%s: outcome %+v, err %v", name, out, err)
		}
	}
	if len(got) != 0 {
		t.Fatalf("filtered messages were handled: %v", got)
	}

	testBot := post("!ping")
	testBot.Author = &discordgo.User{ID: "tester", Bot: true}
	if out, _ := r.HandleMessage(context.Background(), testBot, nil, listener.MessagePost); out.Handled != 1 {
		t.Errorf("test bot message not handled: %+v", out)
	}
}

func TestHandleMessageEditTypes(t *testing.T) {
	r, _, _ := newTestRouter(t)
	var got []string
	record(r, &got, "post", listener.Options{})
	record(r, &got, "both", listener.Options{Type: listener.MessageBoth})

	prev := post("!post")
	edited := post("!post")
	// An edit with the same content and no new embed is not a link preview.
	if _, err := r.HandleMessage(context.Background(), edited, prev, listener.MessageEdit); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("post-only listener saw an edit: %v", got)
	}

	if _, err := r.HandleMessage(context.Background(), post("!both x"), nil, listener.MessageEdit); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "both:x" {
		t.Errorf("got %v, want [both:x]", got)
	}
}

func TestIsEditWeCanIgnore(t *testing.T) {
	link := "https://example.com/a"
	prev := &discordgo.Message{Content: "see " + link}
	withEmbed := func(url string) *discordgo.Message {
		return &discordgo.Message{Content: prev.Content, Embeds: []*discordgo.MessageEmbed{{URL: url}}}
	}

	tests := []struct {
		name string
		msg  *discordgo.Message
		prev *discordgo.Message
		want bool
	}{
		{"preview", withEmbed(link), prev, true},
		{"quoted preview", withEmbed(link + "%22"), prev, true},
		{"other url", withEmbed("https://example.com/b"), prev, false},
		{"content changed", &discordgo.Message{Content: "new", Embeds: []*discordgo.MessageEmbed{{URL: link}}}, prev, false},
		{"no new embed", &discordgo.Message{Content: prev.Content}, prev, false},
		{"unknown prev", withEmbed(link), nil, false},
	}
	for _, tt := range tests {
		if got := IsEditWeCanIgnore(tt.msg, tt.prev); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHandleMessageIgnoresLinkPreviewEdit(t *testing.T) {
	r, _, _ := newTestRouter(t)
	var got []string
	record(r, &got, "link", listener.Options{Type: listener.MessageBoth})

	prev := post("!link https://example.com/x")
	msg := post(prev.Content)
	msg.Embeds = []*discordgo.MessageEmbed{{URL: "https://example.com/x"}}
	out, err := r.HandleMessage(context.Background(), msg, prev, listener.MessageEdit)
	if err != nil {
		t.Fatal(err)
	}
	if out != (listener.Outcome{}) || len(got) != 0 {
		t.Errorf("preview edit dispatched: %+v %v", out, got)
	}
}

func TestHandleMessageLogsUnknownCommand(t *testing.T) {
	r, _, logs := newTestRouter(t)
	var got []string
	record(r, &got, "ping", listener.Options{})

	out, err := r.HandleMessage(context.Background(), post("!pong"), nil, listener.MessagePost)
	if err != nil {
		t.Fatal(err)
	}
	if out != (listener.Outcome{Tested: 1}) {
		t.Errorf("outcome = %+v", out)
	}
	if n := logs.FilterMessage("1 handlers registered, but this wasn't one").Len(); n != 1 {
		t.Errorf("unknown command logged %d times", n)
	}

	if _, err := r.HandleMessage(context.Background(), post("just chatting"), nil, listener.MessagePost); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("1 handlers registered, but this wasn't one").Len(); n != 1 {
		t.Errorf("plain chat logged as unknown command")
	}
}

func TestHandleMessageReturnsHandlerError(t *testing.T) {
	r, _, logs := newTestRouter(t)
	boom := errors.New("boom")
	r.RegisterMessageListener(MessageCommand("fail"), func(context.Context, *sage.Message, *listener.Match) error {
		return boom
	}, listener.Options{Command: "fail"})

	out, err := r.HandleMessage(context.Background(), post("!fail"), nil, listener.MessagePost)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var de *listener.DispatchError
	if !errors.As(err, &de) || de.Phase != listener.PhaseHandle || de.Command != "fail" {
		t.Errorf("err = %#v", err)
	}
	if out != (listener.Outcome{}) {
		t.Errorf("outcome = %+v, want zero", out)
	}
	entries := logs.FilterMessage("Message dispatch failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["content"] != "!fail" {
		t.Errorf("failure log = %+v", entries)
	}
}

func TestRegisterBeforeBotID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(&sage.Env{Session: sagetest.New("bot")}, zap.New(core))
	r.RegisterMessageListener(MessageCommand("early"), func(context.Context, *sage.Message, *listener.Match) error {
		return nil
	}, listener.Options{Command: "early"})

	if logs.FilterMessage("Registering listener before bot id is set").Len() != 1 {
		t.Error("missing bot id warning")
	}
	if r.Count(listener.MessageListener) != 1 {
		t.Error("listener not registered")
	}
}

func slash(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g",
		ChannelID: "c",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u"}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func button(customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i2",
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c",
		User:      &discordgo.User{ID: "u"},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
	}
}

func TestHandleInteraction(t *testing.T) {
	r, sess, _ := newTestRouter(t)
	var data []any
	r.RegisterInteractionListener(SlashCommand("ping"), func(_ context.Context, in *sage.Interaction, _ *listener.Match) error {
		return in.Respond("pong")
	}, listener.Options{Command: "ping", Definition: &discordgo.ApplicationCommand{Name: "ping", Description: "Ping"}})
	r.RegisterInteractionListener(Component("confirm"), func(_ context.Context, _ *sage.Interaction, m *listener.Match) error {
		data = append(data, m.Data)
		return nil
	}, listener.Options{Command: "confirm"})

	if out, err := r.HandleInteraction(context.Background(), slash("PING")); err != nil || out.Handled != 1 {
		t.Fatalf("slash: %+v %v", out, err)
	}
	if sess.ResponseCount() != 1 {
		t.Errorf("responses = %d", sess.ResponseCount())
	}

	if out, _ := r.HandleInteraction(context.Background(), button("confirm:yes")); out.Handled != 1 {
		t.Errorf("button not handled: %+v", out)
	}
	if out, _ := r.HandleInteraction(context.Background(), button("confirmed")); out.Handled != 0 {
		t.Errorf("prefix without separator matched: %+v", out)
	}
	if len(data) != 1 || data[0] != "yes" {
		t.Errorf("component data = %v", data)
	}

	ping := &discordgo.Interaction{Type: discordgo.InteractionPing}
	if out, err := r.HandleInteraction(context.Background(), ping); err != nil || out != (listener.Outcome{}) {
		t.Errorf("ping interaction dispatched: %+v %v", out, err)
	}
}

func TestHandleReaction(t *testing.T) {
	r, _, _ := newTestRouter(t)
	var users []string
	r.RegisterReactionListener(ReactionEmoji("delete", "❌"), func(_ context.Context, c *sage.Reaction, _ *listener.Match) error {
		users = append(users, c.ActorID())
		return nil
	}, listener.Options{Command: "delete"})

	reaction := &discordgo.MessageReaction{UserID: "u", MessageID: "m", ChannelID: "c", Emoji: discordgo.Emoji{Name: "❌"}}
	out, err := r.HandleReaction(context.Background(), reaction, nil, listener.ReactionAdd)
	if err != nil || out.Handled != 1 {
		t.Fatalf("add: %+v %v", out, err)
	}
	if len(users) != 1 || users[0] != "u" {
		t.Errorf("actor = %v", users)
	}

	if out, _ := r.HandleReaction(context.Background(), reaction, nil, listener.ReactionRemove); out.Tested != 0 {
		t.Errorf("add-only listener tested on remove: %+v", out)
	}

	other := *reaction
	other.Emoji = discordgo.Emoji{Name: "✅"}
	if out, _ := r.HandleReaction(context.Background(), &other, nil, listener.ReactionAdd); out.Handled != 0 {
		t.Errorf("wrong emoji handled: %+v", out)
	}

	if out, _ := r.HandleReaction(context.Background(), reaction, &discordgo.User{ID: "b", Bot: true}, listener.ReactionAdd); out != (listener.Outcome{}) {
		t.Errorf("bot reaction dispatched: %+v", out)
	}
}

func TestHandleReactionIgnoresOwnReactions(t *testing.T) {
	r, _, _ := newTestRouter(t, WithTestBotID("bot"))
	handled := 0
	r.RegisterReactionListener(ReactionEmoji("confirm", "✅"), func(context.Context, *sage.Reaction, *listener.Match) error {
		handled++
		return nil
	}, listener.Options{Command: "confirm", Type: listener.ReactionBoth})

	own := &discordgo.MessageReaction{UserID: "bot", MessageID: "m", ChannelID: "c", Emoji: discordgo.Emoji{Name: "✅"}}
	tests := []struct {
		name string
		user *discordgo.User
		typ  listener.EventType
	}{
		{"add without user", nil, listener.ReactionAdd},
		{"remove without user", nil, listener.ReactionRemove},
		{"add with user", &discordgo.User{ID: "bot", Bot: true}, listener.ReactionAdd},
	}
	for _, tt := range tests {
		out, err := r.HandleReaction(context.Background(), own, tt.user, tt.typ)
		if err != nil || out != (listener.Outcome{}) {
			t.Errorf("%s: HandleReaction = %+v, %v, want zero outcome", tt.name, out, err)
		}
	}
	if handled != 0 {
		t.Errorf("own reactions handled %d times", handled)
	}

	other := *own
	other.UserID = "u"
	if out, _ := r.HandleReaction(context.Background(), &other, nil, listener.ReactionRemove); out.Handled != 1 {
		t.Errorf("user remove without user object: %+v, want handled", out)
	}
}

func TestIntentsAndCommands(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if got := r.Intents(); got != discordgo.IntentGuilds {
		t.Errorf("empty router intents = %d", got)
	}

	nop := func(context.Context, *sage.Interaction, *listener.Match) error { return nil }
	def := &discordgo.ApplicationCommand{Name: "roll", Description: "Roll dice"}
	r.RegisterInteractionListener(SlashCommand("roll"), nop, listener.Options{Command: "roll", Definition: def, Permissions: discordgo.PermissionSendMessages})
	r.RegisterInteractionListener(SlashCommand("roll"), nop, listener.Options{Command: "roll-again", Definition: def})
	r.RegisterMessageListener(MessageCommand("ping"), func(context.Context, *sage.Message, *listener.Match) error { return nil },
		listener.Options{Command: "ping", Intents: discordgo.IntentGuildMembers})

	intents := r.Intents()
	for _, want := range []discordgo.Intent{discordgo.IntentGuilds, discordgo.IntentMessageContent, discordgo.IntentGuildMembers} {
		if intents&want == 0 {
			t.Errorf("intents %d missing %d", intents, want)
		}
	}
	if intents&discordgo.IntentGuildMessageReactions != 0 {
		t.Error("reaction intents requested without reaction listeners")
	}

	cmds := r.ApplicationCommands()
	if len(cmds) != 1 || cmds[0].Name != "roll" || cmds[0].Type != discordgo.ChatApplicationCommand {
		t.Errorf("commands = %+v", cmds)
	}
	if def.Type != 0 || cmds[0] == def {
		t.Error("ApplicationCommands() handed out the registered definition")
	}
	if r.Permissions()&discordgo.PermissionSendMessages == 0 {
		t.Error("permissions missing")
	}
	if got := r.MessageCommands(); len(got) != 1 || got[0] != "ping" {
		t.Errorf("MessageCommands = %v", got)
	}
}
