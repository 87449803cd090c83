package moderation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/resolve"
)

const (
	maxPrune         = 100
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

type PruneCommand struct {
	now func() time.Time
}

func (c *PruneCommand) Name() string            { return "prune" }
func (c *PruneCommand) Description() string     { return "Prune a number of messages from the current channel." }
func (c *PruneCommand) Usage() string           { return "<amount>" }
func (c *PruneCommand) Category() string        { return "Cleanup" }
func (c *PruneCommand) RequiresArgs() bool      { return true }
func (c *PruneCommand) Cooldown() time.Duration { return 10 * time.Second }
func (c *PruneCommand) Permissions() int64      { return discordgo.PermissionManageMessages }

func (c *PruneCommand) Run(ctx context.Context, mc *command.MessageContext) error {
	channel, err := mc.Resolver.ResolveChannel(ctx, resolve.FromMessage(mc.Message))
	if err != nil {
		return err
	}
	if channel == nil || (channel.Type != discordgo.ChannelTypeGuildText && channel.Type != discordgo.ChannelTypeGuildNews) {
		kind := "unknown"
		if channel != nil {
			kind = channelTypeName(channel.Type)
		}
		mc.Log.Debug().Str("type", kind).Msg("invalid channel type for prune")
		return mc.Reply(fmt.Sprintf("Invalid channel type (%s) for prune command.", kind))
	}

	amount, err := strconv.Atoi(mc.Args[0])
	if err != nil {
		return mc.Reply(fmt.Sprintf("%s is not a valid number.", mc.Args[0]))
	}
	amount = min(amount, maxPrune)
	if amount <= 0 {
		return mc.Reply(fmt.Sprintf("Cannot delete %d messages.", amount))
	}

	deleted, err := c.bulkDelete(mc, channel.ID, min(amount+1, maxPrune))
	if err != nil {
		mc.Log.Warn().Err(err).Str("channel", channel.ID).Msg("prune failed")
		return mc.Send(fmt.Sprintf("%s, an error occurred while executing command: %v", mc.Author().Mention(), err))
	}

	unit := "messages"
	if deleted == 1 {
		unit = "message"
	}
	// The invoking message may already be gone, so no reply reference.
	return mc.Send(fmt.Sprintf("%s, %d %s deleted.", mc.Author().Mention(), deleted, unit))
}

func (c *PruneCommand) bulkDelete(mc *command.MessageContext, channelID string, limit int) (int, error) {
	msgs, err := mc.Session.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return 0, err
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	cutoff := now().Add(-bulkDeleteMaxAge)

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		ids = append(ids, m.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := mc.Session.ChannelMessagesBulkDelete(channelID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func channelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeDM:
		return "dm"
	case discordgo.ChannelTypeGuildVoice:
		return "voice"
	case discordgo.ChannelTypeGroupDM:
		return "group"
	case discordgo.ChannelTypeGuildCategory:
		return "category"
	case discordgo.ChannelTypeGuildNews:
		return "news"
	default:
		return fmt.Sprintf("%d", int(t))
	}
}
