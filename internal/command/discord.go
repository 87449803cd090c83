package command

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

// GuildOps is the slice of guild administration that commands and reaction
// handlers call into.
type GuildOps interface {
	KickMember(ctx context.Context, member resolve.Resolvable, reason string) error
	AddRole(ctx context.Context, member, role resolve.Resolvable) error
	RemoveRole(ctx context.Context, member, role resolve.Resolvable) error
}

// MessageContext is what the runtime hands a text command.
type MessageContext struct {
	Session  gateway.Session
	Message  *discordgo.Message
	Args     []string
	Prefix   string
	Invoked  string
	Registry *cmd.Registry
	Resolver *resolve.Resolver
	Guild    GuildOps
	History  storage.CommandHistory
	Log      zerolog.Logger
}

// InGuild reports whether the message was posted in a guild channel.
func (c *MessageContext) InGuild() bool {
	return c.Message.GuildID != ""
}

// Author returns the message author.
func (c *MessageContext) Author() *discordgo.User {
	return c.Message.Author
}

// Reply answers the triggering message.
func (c *MessageContext) Reply(content string) error {
	return gateway.Reply(c.Session, c.Message, content)
}

// Send posts content to the triggering message's channel.
func (c *MessageContext) Send(content string) error {
	return gateway.Message(c.Session, c.Message.ChannelID, content)
}

// Replyf formats and replies, logging delivery failures.
func (c *MessageContext) Replyf(format string, args ...any) {
	if err := c.Reply(fmt.Sprintf(format, args...)); err != nil {
		c.Log.Warn().Err(err).Str("channel", c.Message.ChannelID).Msg("failed to send reply")
	}
}

// Metadata read by middleware and help. Every interface is optional.

type Usager interface {
	Usage() string
}

type ArgsRequirer interface {
	RequiresArgs() bool
}

type Cooldowner interface {
	Cooldown() time.Duration
}

type GuildOnlyer interface {
	GuildOnly() bool
}

type Permissioner interface {
	Permissions() int64
}

type Categorizer interface {
	Category() string
}

// DiscordCommand is what individual text commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Run(ctx context.Context, mc *MessageContext) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// registry.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := inv.Data.(*MessageContext)
	if !ok {
		return fmt.Errorf("%s: unexpected invocation data %T", a.Cmd.Name(), inv.Data)
	}
	return a.Cmd.Run(ctx, mc)
}

// Aliases forwards the inner command's aliases so the registry can index them.
func (a *DiscordAdapter) Aliases() []string {
	if al, ok := a.Cmd.(cmd.Aliased); ok {
		return al.Aliases()
	}
	return nil
}

// Descriptor is the flattened metadata of a registered command.
type Descriptor struct {
	Name         string        `json:"name" yaml:"name"`
	Aliases      []string      `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Description  string        `json:"description" yaml:"description"`
	Usage        string        `json:"usage,omitempty" yaml:"usage,omitempty"`
	Category     string        `json:"category,omitempty" yaml:"category,omitempty"`
	RequiresArgs bool          `json:"requires_args" yaml:"requires_args"`
	Cooldown     time.Duration `json:"cooldown" yaml:"cooldown"`
	GuildOnly    bool          `json:"guild_only" yaml:"guild_only"`
	Permissions  int64         `json:"permissions" yaml:"permissions"`
}

// Meta returns the DiscordCommand behind a registered command, unwrapping
// middleware and the adapter.
func Meta(c cmd.Command) any {
	root := cmd.Root(c)
	if a, ok := root.(*DiscordAdapter); ok {
		return a.Cmd
	}
	return root
}

// Describe collects all optional metadata of c.
func Describe(c cmd.Command) Descriptor {
	m := Meta(c)
	d := Descriptor{Name: c.Name(), Description: c.Description()}
	if v, ok := m.(cmd.Aliased); ok {
		d.Aliases = v.Aliases()
	}
	if v, ok := m.(Usager); ok {
		d.Usage = v.Usage()
	}
	if v, ok := m.(Categorizer); ok {
		d.Category = v.Category()
	}
	if v, ok := m.(ArgsRequirer); ok {
		d.RequiresArgs = v.RequiresArgs()
	}
	if v, ok := m.(Cooldowner); ok {
		d.Cooldown = v.Cooldown()
	}
	if v, ok := m.(GuildOnlyer); ok {
		d.GuildOnly = v.GuildOnly()
	}
	if v, ok := m.(Permissioner); ok {
		d.Permissions = v.Permissions()
	}
	return d
}

// RegisterCommand adapts c, applies middlewares (first is outermost) and adds
// it to the registry.
func RegisterCommand(reg *cmd.Registry, c DiscordCommand, mws ...cmd.Middleware) error {
	return reg.Register(cmd.Apply(&DiscordAdapter{Cmd: c}, mws...))
}
