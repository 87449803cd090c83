package discord

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/config"
	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/gateway/gatewaytest"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

const guildID = "g1"

type fixture struct {
	bot   *Bot
	fake  *gatewaytest.Session
	store *storage.SQLiteStore
}

func testConfig() *config.Config {
	return &config.Config{
		GuildID:               guildID,
		CommandPrefix:         "!",
		WelcomeChannel:        "welcome",
		LogChannel:            "logs",
		DefaultRole:           "student",
		ReactionRoles:         map[string]string{"👍": "verified"},
		CooldownSweepInterval: time.Minute,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := gatewaytest.New(guildID)
	fake.AddRole(guildID, &discordgo.Role{ID: guildID, Name: "@everyone"})
	fake.AddRole(guildID, &discordgo.Role{ID: "mods", Name: "mods", Permissions: discordgo.PermissionKickMembers})
	fake.AddRole(guildID, &discordgo.Role{ID: "verified-id", Name: "verified"})
	fake.AddRole(guildID, &discordgo.Role{ID: "student-id", Name: "student"})
	fake.AddChannel(&discordgo.Channel{ID: "welcome-id", GuildID: guildID, Name: "welcome", Type: discordgo.ChannelTypeGuildText})
	fake.AddChannel(&discordgo.Channel{ID: "general-id", GuildID: guildID, Name: "general", Type: discordgo.ChannelTypeGuildText})
	fake.AddChannel(&discordgo.Channel{ID: "logs-id", GuildID: guildID, Name: "logs", Type: discordgo.ChannelTypeGuildText})
	fake.AddMember(guildID, &discordgo.User{ID: "mod", Username: "mod"}, "mods")
	fake.AddMember(guildID, &discordgo.User{ID: "alice", Username: "alice"})

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	b, err := NewWithSession(testConfig(), fake, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWithSession: %v", err)
	}
	return &fixture{bot: b, fake: fake, store: store}
}

func (f *fixture) message(author, guild, content string, mentions ...*discordgo.User) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m-" + content,
		ChannelID: "general-id",
		GuildID:   guild,
		Content:   content,
		Author:    &discordgo.User{ID: author, Username: author},
		Mentions:  mentions,
	}
}

func TestHandleMessage_Ping(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!ping"))

	sent := f.fake.SentContents()
	if len(sent) != 1 || sent[0] != "Pong." {
		t.Fatalf("sent = %q, want exactly one Pong.", sent)
	}
}

func TestHandleMessage_Ignored(t *testing.T) {
	f := newFixture(t)
	bot := f.message("other-bot", guildID, "!ping")
	bot.Author.Bot = true

	for _, m := range []*discordgo.Message{
		bot,
		f.message("alice", guildID, "ping"),
		f.message("alice", guildID, "!"),
	} {
		f.bot.handleMessage(context.Background(), m)
	}
	if sent := f.fake.SentContents(); len(sent) != 0 {
		t.Fatalf("expected no replies, got %q", sent)
	}
}

func TestHandleMessage_AliasAndCase(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!P"))
	if sent := f.fake.SentContents(); len(sent) != 1 || sent[0] != "Pong." {
		t.Fatalf("sent = %q", sent)
	}
}

func TestHandleMessage_Unknown(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!dance now"))
	want := "The dance command is not one of the recognized commands."
	if sent := f.fake.SentContents(); len(sent) != 1 || sent[0] != want {
		t.Fatalf("sent = %q", sent)
	}
}

func TestHandleMessage_KickWithoutMention(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("mod", guildID, "!kick alice"))

	if sent := f.fake.SentContents(); len(sent) != 1 || sent[0] != "No user mentioned in kick command." {
		t.Fatalf("sent = %q", sent)
	}
	if n := len(f.fake.CallsTo("GuildMemberDeleteWithReason")); n != 0 {
		t.Fatalf("kick calls = %d", n)
	}
}

func TestHandleMessage_KickMention(t *testing.T) {
	f := newFixture(t)
	alice := &discordgo.User{ID: "alice", Username: "alice", Discriminator: "0"}
	f.bot.handleMessage(context.Background(), f.message("mod", guildID, "!kick <@alice>", alice))

	calls := f.fake.CallsTo("GuildMemberDeleteWithReason")
	if len(calls) != 1 || calls[0].Args[1] != "alice" {
		t.Fatalf("kick calls = %+v", calls)
	}
	if sent := f.fake.SentContents(); len(sent) != 1 || !strings.HasPrefix(sent[0], "Successfully kicked alice") {
		t.Errorf("sent = %q", sent)
	}
}

func TestHandleMessage_KickDeniedWithoutPermission(t *testing.T) {
	f := newFixture(t)
	mod := &discordgo.User{ID: "mod", Username: "mod"}
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!kick <@mod>", mod))

	if sent := f.fake.SentContents(); len(sent) != 1 || sent[0] != "You do not have the required permissions to execute that command." {
		t.Fatalf("sent = %q", sent)
	}
	if n := len(f.fake.CallsTo("GuildMemberDeleteWithReason")); n != 0 {
		t.Fatalf("kick calls = %d", n)
	}
}

func TestHandleMessage_GuildOnlyFromDM(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("mod", "", "!kick <@alice>"))
	want := "The `kick` command can only be executed from within a guild server."
	if sent := f.fake.SentContents(); len(sent) != 1 || sent[0] != want {
		t.Fatalf("sent = %q", sent)
	}
}

func TestHandleMessage_Cooldown(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!ping"))
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!ping"))

	sent := f.fake.SentContents()
	if len(sent) != 2 || sent[0] != "Pong." || !strings.HasPrefix(sent[1], "Please wait ") {
		t.Fatalf("sent = %q", sent)
	}
}

type failingCommand struct {
	panics bool
}

func (c *failingCommand) Name() string        { return "explode" }
func (c *failingCommand) Description() string { return "always fails" }

func (c *failingCommand) Run(context.Context, *command.MessageContext) error {
	if c.panics {
		panic("kaboom")
	}
	return errors.New("boom")
}

func TestHandleMessage_HandlerFailureIsContained(t *testing.T) {
	tests := []struct {
		name   string
		panics bool
		want   string
	}{
		{"error", false, "There was an error trying to execute the explode command: boom"},
		{"panic", true, "There was an error trying to execute the explode command: panic: kaboom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := command.RegisterCommand(f.bot.commands, &failingCommand{panics: tt.panics}); err != nil {
				t.Fatal(err)
			}
			f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!explode"))
			if sent := f.fake.SentContents(); len(sent) != 1 || sent[0] != tt.want {
				t.Fatalf("sent = %q", sent)
			}
		})
	}
}

func TestHandleMessage_RecordsHistory(t *testing.T) {
	f := newFixture(t)
	f.bot.handleMessage(context.Background(), f.message("alice", guildID, "!args-info foo"))

	hist, err := f.store.CommandHistory(context.Background(), guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Command != "args-info" || hist[0].ChannelName != "general" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestHandleReaction_WelcomeRole(t *testing.T) {
	tests := []struct {
		name      string
		channelID string
		wantCalls int
	}{
		{"welcome channel", "welcome-id", 1},
		{"other channel", "general-id", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fake.Messages["rm"] = &discordgo.Message{ID: "rm", ChannelID: tt.channelID, GuildID: guildID}
			r := &discordgo.MessageReaction{UserID: "alice", MessageID: "rm", ChannelID: tt.channelID, GuildID: guildID, Emoji: discordgo.Emoji{Name: "👍"}}

			f.bot.handleReaction(context.Background(), r, nil, true)

			calls := f.fake.CallsTo("GuildMemberRoleAdd")
			if len(calls) != tt.wantCalls {
				t.Fatalf("role add calls = %d, want %d", len(calls), tt.wantCalls)
			}
			if tt.wantCalls == 1 && (calls[0].Args[1] != "alice" || calls[0].Args[2] != "verified-id") {
				t.Errorf("call = %+v", calls[0])
			}

			f.bot.handleReaction(context.Background(), r, nil, false)
			if n := len(f.fake.CallsTo("GuildMemberRoleRemove")); n != tt.wantCalls {
				t.Errorf("role remove calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestHandleReaction_DropsUnfetchableMessage(t *testing.T) {
	f := newFixture(t)
	r := &discordgo.MessageReaction{UserID: "alice", MessageID: "gone", ChannelID: "welcome-id", GuildID: guildID, Emoji: discordgo.Emoji{Name: "👍"}}
	f.bot.handleReaction(context.Background(), r, nil, true)

	if n := len(f.fake.CallsTo("GuildMemberRoleAdd")); n != 0 {
		t.Fatalf("role add calls = %d", n)
	}
}

type panickyReaction struct{}

func (panickyReaction) Name() string        { return "panicky" }
func (panickyReaction) Description() string { return "" }

func (panickyReaction) OnReactionAdd(context.Context, *command.ReactionContext) error {
	panic("nope")
}

func TestHandleReaction_FailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	regs := command.NewReactionRegistry()
	if err := regs.Register(panickyReaction{}); err != nil {
		t.Fatal(err)
	}
	for _, h := range f.bot.reactions.All() {
		if err := regs.Register(h); err != nil {
			t.Fatal(err)
		}
	}
	f.bot.reactions = regs

	f.fake.Messages["rm"] = &discordgo.Message{ID: "rm", ChannelID: "welcome-id", GuildID: guildID}
	r := &discordgo.MessageReaction{UserID: "alice", MessageID: "rm", ChannelID: "welcome-id", GuildID: guildID, Emoji: discordgo.Emoji{Name: "👍"}}
	f.bot.handleReaction(context.Background(), r, nil, true)

	if n := len(f.fake.CallsTo("GuildMemberRoleAdd")); n != 1 {
		t.Fatalf("role add calls = %d, want 1", n)
	}
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u := &storage.User{Name: "Alice Liddell", Email: "alice@example.com"}
	if err := f.store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := f.store.LinkDiscord(ctx, u.ID, storage.DiscordLink{ID: "alice", Username: "alice", Discriminator: "0", Avatar: "a"}); err != nil {
		t.Fatal(err)
	}

	member, _ := f.fake.State.Member(guildID, "alice")
	f.bot.handleMemberAdd(ctx, member)

	calls := f.fake.CallsTo("GuildMemberNickname")
	if len(calls) != 1 || calls[0].Args[2] != "Alice Liddell" {
		t.Fatalf("nickname calls = %+v", calls)
	}

	f.bot.handleMemberAdd(ctx, &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: "ghost"}})
	if n := len(f.fake.CallsTo("GuildMemberNickname")); n != 1 {
		t.Errorf("unlinked member triggered a nickname change")
	}

	f.bot.handleMemberRemove(ctx, &discordgo.Member{GuildID: "elsewhere", User: &discordgo.User{ID: "alice"}})
	if got, _ := f.store.GetUser(ctx, u.ID); !got.Linked() {
		t.Fatal("member of another guild cleared the link")
	}

	f.bot.handleMemberRemove(ctx, member)
	got, err := f.store.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Linked() || got.DiscordUsername != "" || got.DiscordAvatar != "" {
		t.Errorf("link not cleared: %+v", got)
	}
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("existing member only gets a nickname", func(t *testing.T) {
		f := newFixture(t)
		if err := f.bot.AddMember(ctx, resolve.ID("alice"), "Alice", "token"); err != nil {
			t.Fatal(err)
		}
		if n := len(f.fake.CallsTo("GuildMemberAdd")); n != 0 {
			t.Errorf("GuildMemberAdd calls = %d", n)
		}
		if calls := f.fake.CallsTo("GuildMemberNickname"); len(calls) != 1 || calls[0].Args[2] != "Alice" {
			t.Errorf("nickname calls = %+v", calls)
		}
	})

	t.Run("new user joins with token and default role", func(t *testing.T) {
		f := newFixture(t)
		f.fake.AddUser(&discordgo.User{ID: "bob", Username: "bob"})
		if err := f.bot.AddMember(ctx, resolve.ID("bob"), "Bob", "token"); err != nil {
			t.Fatal(err)
		}
		calls := f.fake.CallsTo("GuildMemberAdd")
		if len(calls) != 1 || calls[0].Args[1] != "bob" || calls[0].Args[2] != "token" || calls[0].Args[3] != "Bob" {
			t.Fatalf("GuildMemberAdd calls = %+v", calls)
		}
		m, err := f.fake.State.Member(guildID, "bob")
		if err != nil || len(m.Roles) != 1 || m.Roles[0] != "student-id" {
			t.Errorf("member = %+v, %v", m, err)
		}

		if err := f.bot.AddMember(ctx, resolve.ID("bob"), "Bob", "token"); err != nil {
			t.Fatal(err)
		}
		if n := len(f.fake.CallsTo("GuildMemberAdd")); n != 1 {
			t.Errorf("second AddMember joined again: %d calls", n)
		}
	})

	t.Run("missing default role joins with the implicit role only", func(t *testing.T) {
		f := newFixture(t)
		f.bot.cfg.DefaultRole = "alumni"
		f.fake.AddUser(&discordgo.User{ID: "bob", Username: "bob"})
		if err := f.bot.AddMember(ctx, resolve.ID("bob"), "Bob", "token"); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
		if n := len(f.fake.CallsTo("GuildMemberAdd")); n != 1 {
			t.Fatalf("GuildMemberAdd calls = %d, want 1", n)
		}
		m, err := f.fake.State.Member(guildID, "bob")
		if err != nil || len(m.Roles) != 0 {
			t.Errorf("member = %+v, %v; want no explicit roles", m, err)
		}
	})

	t.Run("member without user", func(t *testing.T) {
		f := newFixture(t)
		err := f.bot.AddMember(ctx, resolve.FromMember(&discordgo.Member{GuildID: guildID}), "x", "token")
		if !errors.Is(err, gateway.ErrUserNotFound) {
			t.Fatalf("err = %v", err)
		}
		if n := len(f.fake.CallsTo("GuildMemberAdd")); n != 0 {
			t.Errorf("GuildMemberAdd calls = %d", n)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		err := f.bot.AddMember(ctx, resolve.ID("nobody"), "x", "token")
		if !errors.Is(err, gateway.ErrUserNotFound) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("join rejected", func(t *testing.T) {
		f := newFixture(t)
		f.fake.AddUser(&discordgo.User{ID: "bob"})
		f.fake.Fail["GuildMemberAdd"] = errors.New("invalid oauth token")
		err := f.bot.AddMember(ctx, resolve.ID("bob"), "Bob", "bad")
		if !errors.Is(err, gateway.ErrExternalCall) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.bot.RemoveMember(ctx, resolve.ID("nobody"), ""); err != nil {
		t.Fatalf("non-member: %v", err)
	}
	f.fake.Fail["GuildMemberDeleteWithReason"] = errors.New("missing permissions")
	if err := f.bot.RemoveMember(ctx, resolve.ID("alice"), ""); err != nil {
		t.Fatalf("failed kick should be logged only: %v", err)
	}
	calls := f.fake.CallsTo("GuildMemberDeleteWithReason")
	if len(calls) != 1 || calls[0].Args[2] != defaultKickReason {
		t.Errorf("calls = %+v", calls)
	}
}

func TestRoleOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.bot.AddRole(ctx, resolve.ID("nobody"), resolve.ID("verified")); !errors.Is(err, gateway.ErrMemberNotFound) {
		t.Errorf("missing member: %v", err)
	}
	if err := f.bot.AddRole(ctx, resolve.ID("alice"), resolve.ID("ghost")); !errors.Is(err, gateway.ErrRoleNotFound) {
		t.Errorf("missing role: %v", err)
	}

	f.fake.Fail["GuildMemberRoleRemove"] = errors.New("hierarchy")
	if err := f.bot.RemoveRole(ctx, resolve.ID("alice"), resolve.ID("verified")); err != nil {
		t.Errorf("rejected removal should be logged only: %v", err)
	}
	if err := f.bot.AddRole(ctx, resolve.ID("alice"), resolve.ID("verified")); err != nil {
		t.Fatal(err)
	}
	if calls := f.fake.CallsTo("GuildMemberRoleAdd"); len(calls) != 1 || calls[0].Args[2] != "verified-id" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestBans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddUser(&discordgo.User{ID: "troll"})

	st, err := f.bot.IsUserBanned(ctx, resolve.ID("troll"))
	if err != nil || st.Banned {
		t.Fatalf("before ban: %+v, %v", st, err)
	}

	if err := f.bot.BanUser(ctx, resolve.ID("troll"), "spam"); err != nil {
		t.Fatal(err)
	}
	st, err = f.bot.IsUserBanned(ctx, resolve.ID("troll"))
	if err != nil || !st.Banned || st.Reason != "spam" {
		t.Fatalf("after ban: %+v, %v", st, err)
	}

	f.fake.Fail["GuildBans"] = errors.New("rate limited")
	if _, err := f.bot.IsUserBanned(ctx, resolve.ID("troll")); !errors.Is(err, gateway.ErrExternalCall) {
		t.Errorf("failed lookup should be an error, got %v", err)
	}

	f.fake.Fail["GuildBanDelete"] = errors.New("unknown ban")
	if err := f.bot.Unban(ctx, resolve.ID("troll")); err != nil {
		t.Errorf("unban failure should be logged only: %v", err)
	}

	g, _ := f.fake.State.Guild(guildID)
	g.Unavailable = true
	if err := f.bot.BanUser(ctx, resolve.ID("troll"), "spam"); !errors.Is(err, gateway.ErrGuildUnavailable) {
		t.Errorf("unavailable guild: %v", err)
	}
}

func TestSetNickname(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.bot.SetNickname(ctx, resolve.ID("nobody"), "x"); err != nil {
		t.Errorf("unresolved member should be logged only: %v", err)
	}
	if n := len(f.fake.CallsTo("GuildMemberNickname")); n != 0 {
		t.Errorf("nickname calls = %d", n)
	}

	f.fake.Fail["GuildMemberNickname"] = errors.New("missing permissions")
	if err := f.bot.SetNickname(ctx, resolve.ID("alice"), "x"); !errors.Is(err, gateway.ErrExternalCall) {
		t.Errorf("rejected change should be returned: %v", err)
	}
}

func TestWelcomeChannelURL(t *testing.T) {
	f := newFixture(t)
	url, err := f.bot.WelcomeChannelURL()
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://discord.com/channels/g1/welcome-id" {
		t.Errorf("url = %q", url)
	}
}

func TestCommandRegistry_RejectsAliasCollision(t *testing.T) {
	f := newFixture(t)
	err := command.RegisterCommand(f.bot.commands, &aliasThief{})
	if !errors.Is(err, cmd.ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
	if got := f.bot.commands.Lookup("p"); got == nil || got.Name() != "ping" {
		t.Errorf("alias p no longer resolves to ping: %v", got)
	}
	if f.bot.commands.Get("pong") != nil {
		t.Error("rejected command was registered")
	}
}

func TestKickMember_MemberWithoutUser(t *testing.T) {
	f := newFixture(t)
	err := f.bot.KickMember(context.Background(), resolve.FromMember(&discordgo.Member{GuildID: guildID}), "")
	if !errors.Is(err, gateway.ErrMemberNotFound) {
		t.Fatalf("err = %v, want ErrMemberNotFound", err)
	}
	if n := len(f.fake.CallsTo("GuildMemberDeleteWithReason")); n != 0 {
		t.Errorf("kick calls = %d", n)
	}
}

type aliasThief struct{}

func (aliasThief) Name() string                                       { return "pong" }
func (aliasThief) Description() string                                { return "" }
func (aliasThief) Aliases() []string                                  { return []string{"p"} }
func (aliasThief) Run(context.Context, *command.MessageContext) error { return nil }

type fakeConn struct {
	mu       sync.Mutex
	handlers []interface{}
	opened   bool
	closed   bool
}

func (c *fakeConn) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = true
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) AddHandler(h interface{}) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
	return func() {}
}

func (c *fakeConn) emit(ev interface{}) {
	c.mu.Lock()
	handlers := append([]interface{}(nil), c.handlers...)
	c.mu.Unlock()

	for _, h := range handlers {
		switch fn := h.(type) {
		case func(*discordgo.Session, *discordgo.Ready):
			if e, ok := ev.(*discordgo.Ready); ok {
				fn(nil, e)
			}
		case func(*discordgo.Session, *discordgo.MessageCreate):
			if e, ok := ev.(*discordgo.MessageCreate); ok {
				fn(nil, e)
			}
		}
	}
}

func TestRun_DispatchesThroughEventLoops(t *testing.T) {
	f := newFixture(t)
	conn := &fakeConn{}
	f.bot.conn = conn

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		conn.mu.Lock()
		opened := conn.opened
		conn.mu.Unlock()
		if opened {
			break
		}
		select {
		case <-deadline:
			t.Fatal("session never opened")
		case <-time.After(5 * time.Millisecond):
		}
	}

	conn.emit(&discordgo.Ready{User: &discordgo.User{ID: "bot", Username: "bot"}})
	select {
	case <-f.bot.Ready():
	case <-deadline:
		t.Fatal("ready never signalled")
	}

	conn.emit(&discordgo.MessageCreate{Message: f.message("alice", guildID, "!ping")})
	for {
		if containsString(f.fake.SentContents(), "Pong.") {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("no reply, sent = %q", f.fake.SentContents())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !conn.closed {
		t.Error("session not closed")
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
