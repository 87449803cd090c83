package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/resolve"
	"discord-user-manager/internal/storage"
)

// handleMemberAdd pushes the linked account's name as the member's nickname.
func (b *Bot) handleMemberAdd(ctx context.Context, m *discordgo.Member) {
	if !b.ownMember(m) {
		return
	}

	u, err := b.users.FindByDiscordID(ctx, m.User.ID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sink.Warn("%s joined the server but is not linked to a local account.", m.User.String())
		return
	}
	if err != nil {
		b.log.Error().Err(err).Str("user", m.User.ID).Msg("failed to look up joining member")
		return
	}

	if err := b.SetNickname(ctx, resolve.FromMember(m), u.Name); err != nil {
		b.log.Warn().Err(err).Str("user", m.User.ID).Msg("failed to sync nickname on join")
		return
	}
	b.sink.Info("%s joined the server as %s.", m.User.String(), u.Name)
}

// handleMemberRemove clears the Discord link of the departed member's account.
func (b *Bot) handleMemberRemove(ctx context.Context, m *discordgo.Member) {
	if !b.ownMember(m) {
		return
	}

	u, err := b.users.FindByDiscordID(ctx, m.User.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		b.log.Error().Err(err).Str("user", m.User.ID).Msg("failed to look up departing member")
		return
	}

	if err := b.users.ClearDiscord(ctx, u.ID); err != nil {
		b.log.Error().Err(err).Int64("account", u.ID).Msg("failed to clear discord link")
		return
	}
	b.sink.Info("%s left the server; unlinked account %s.", m.User.String(), u.Name)
}

func (b *Bot) handleBan(ev banEvent) {
	if ev.guildID != b.cfg.GuildID || ev.user == nil {
		return
	}
	if ev.added {
		b.sink.Warn("%s was banned from the server.", ev.user.String())
		return
	}
	b.sink.Info("%s was unbanned from the server.", ev.user.String())
}

func (b *Bot) ownMember(m *discordgo.Member) bool {
	return m != nil && m.User != nil && m.GuildID == b.cfg.GuildID
}
