// Package discord runs the bot: it owns the gateway connection, dispatches
// events to the command and reaction registries, keeps local user records in
// sync with guild membership and exposes guild administration to the web API.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/commands/core"
	"discord-user-manager/internal/commands/moderation"
	"discord-user-manager/internal/config"
	"discord-user-manager/internal/cooldown"
	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/logging"
	"discord-user-manager/internal/middleware"
	"discord-user-manager/internal/reactions"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

const eventBuffer = 64

// connection is the lifecycle half of a live Discord session.
type connection interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
}

// Bot is the Discord service object. Construct it once and share it.
type Bot struct {
	cfg       *config.Config
	session   gateway.Session
	conn      connection
	resolver  *resolve.Resolver
	commands  *cmd.Registry
	reactions *command.ReactionRegistry
	cooldowns *cooldown.Tracker
	users     storage.UserStore
	history   storage.CommandHistory
	sink      *LogSink
	log       zerolog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	events events
}

// New dials Discord (without connecting) and assembles the bot.
func New(cfg *config.Config, store storage.Store, log zerolog.Logger) (*Bot, error) {
	client, err := gateway.Dial(cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	b, err := NewWithSession(cfg, client, store, log)
	if err != nil {
		return nil, err
	}
	b.conn = client
	return b, nil
}

// NewWithSession assembles the bot around an existing session. The returned
// bot can dispatch events and run admin operations but cannot Run.
func NewWithSession(cfg *config.Config, s gateway.Session, store storage.Store, log zerolog.Logger) (*Bot, error) {
	log = logging.Component(log, "discord")
	resolver := resolve.New(s, cfg.GuildID)

	b := &Bot{
		cfg:       cfg,
		session:   s,
		resolver:  resolver,
		commands:  cmd.NewRegistry(),
		reactions: command.NewReactionRegistry(),
		cooldowns: cooldown.New(),
		users:     store,
		history:   store,
		sink:      NewLogSink(s, resolver, cfg.LogChannel, cfg.LogChannelRate, log),
		log:       log,
		ready:     make(chan struct{}),
		events:    newEvents(eventBuffer),
	}
	if err := b.registerHandlers(); err != nil {
		return nil, err
	}
	return b, nil
}

// registerHandlers assembles the static command and reaction registries.
func (b *Bot) registerHandlers() error {
	mws := middleware.Chain(b.cooldowns, b.history)
	if err := core.Register(b.commands, mws...); err != nil {
		return fmt.Errorf("register core commands: %w", err)
	}
	if err := moderation.Register(b.commands, mws...); err != nil {
		return fmt.Errorf("register moderation commands: %w", err)
	}
	if err := b.reactions.Register(&reactions.AddRole{
		WelcomeChannel: b.cfg.WelcomeChannel,
		Roles:          b.cfg.ReactionRoles,
	}); err != nil {
		return fmt.Errorf("register reactions: %w", err)
	}
	b.log.Info().
		Int("commands", b.commands.Len()).
		Int("reactions", b.reactions.Len()).
		Msg("handlers registered")
	return nil
}

// Commands returns the command registry.
func (b *Bot) Commands() *cmd.Registry { return b.commands }

// Sink returns the leveled log sink.
func (b *Bot) Sink() *LogSink { return b.sink }

// Ready is closed once the gateway reports the session ready.
func (b *Bot) Ready() <-chan struct{} { return b.ready }

// Run connects to Discord and dispatches events until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if b.conn == nil {
		return fmt.Errorf("bot has no gateway connection")
	}

	for _, remove := range b.events.attach(ctx, b.conn) {
		defer remove()
	}

	if err := b.conn.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.conn.Close()

	var wg sync.WaitGroup
	b.startLoops(ctx, &wg)

	wg.Add(2)
	go func() {
		defer wg.Done()
		b.cooldowns.Run(ctx, b.cfg.CooldownSweepInterval, b.log)
	}()
	go func() {
		defer wg.Done()
		b.sink.Run(ctx)
	}()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, cleaning up")
	wg.Wait()
	return nil
}

func (b *Bot) onReady(r *discordgo.Ready) {
	name := ""
	if r.User != nil {
		name = r.User.Username
	}
	b.readyOnce.Do(func() { close(b.ready) })
	b.log.Info().Str("user", name).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
	if _, err := b.resolver.Guild(); err != nil {
		b.log.Warn().Err(err).Msg("configured guild not in session yet")
	}
}
