package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/resolve"
)

const kickReason = "Kicked by bot kick command."

type KickCommand struct{}

func (c *KickCommand) Name() string            { return "kick" }
func (c *KickCommand) Description() string     { return "Kick a user from the Discord guild server." }
func (c *KickCommand) Aliases() []string       { return []string{"k"} }
func (c *KickCommand) Usage() string           { return "<guildUser>" }
func (c *KickCommand) Category() string        { return "Moderation" }
func (c *KickCommand) RequiresArgs() bool      { return true }
func (c *KickCommand) GuildOnly() bool         { return true }
func (c *KickCommand) Cooldown() time.Duration { return time.Second }
func (c *KickCommand) Permissions() int64      { return discordgo.PermissionKickMembers }

func (c *KickCommand) Run(ctx context.Context, mc *command.MessageContext) error {
	if len(mc.Message.Mentions) == 0 {
		return mc.Reply("No user mentioned in kick command.")
	}

	user := mc.Message.Mentions[0]
	if user.ID == mc.Author().ID {
		return mc.Reply("You can't kick yourself.")
	}

	member, err := mc.Resolver.ResolveGuildMember(resolve.FromUser(user))
	if err != nil {
		return err
	}
	if member == nil {
		return mc.Reply(fmt.Sprintf("User %s is not a guild member.", user.String()))
	}

	if err := mc.Guild.KickMember(ctx, resolve.FromMember(member), kickReason); err != nil {
		mc.Log.Debug().Err(err).Str("user", user.ID).Msg("kick failed")
		return mc.Reply(fmt.Sprintf("Unable to kick %s", user.String()))
	}
	return mc.Reply(fmt.Sprintf("Successfully kicked %s", user.String()))
}
