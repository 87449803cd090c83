package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/pkg/retrylimit"
)

const (
	defaultKickReason = "Kicked by bot."
	bansPageSize      = 1000
)

// BanStatus is the outcome of a ban lookup.
type BanStatus struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason,omitempty"`
}

// AddMember joins a user to the guild with their OAuth access token and the
// default role. A user who is already a member only gets their nickname set.
func (b *Bot) AddMember(ctx context.Context, user resolve.Resolvable, nickname, accessToken string) error {
	g, err := b.resolver.AvailableGuild()
	if err != nil {
		return err
	}

	member, err := b.resolver.ResolveGuildMember(user)
	if err != nil {
		return err
	}
	if member != nil {
		b.log.Debug().Str("user", member.User.ID).Msg("user already a member of the guild")
		return b.SetNickname(ctx, resolve.FromMember(member), nickname)
	}

	u, err := b.resolver.ResolveUser(ctx, user)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: %s", gateway.ErrUserNotFound, user)
	}

	var roles []string
	role, err := b.resolver.ResolveRole(resolve.ID(b.cfg.DefaultRole))
	switch {
	case err != nil:
		return err
	case role != nil:
		roles = []string{role.ID}
	default:
		b.log.Warn().Str("role", b.cfg.DefaultRole).Msg("default role not found, joining with @everyone only")
	}

	b.log.Debug().Str("user", u.ID).Msg("adding user to the guild")
	params := &discordgo.GuildMemberAddParams{
		AccessToken: accessToken,
		Nick:        nickname,
		Roles:       roles,
	}
	if err := b.retry(ctx, "add member", func() error {
		return b.session.GuildMemberAdd(g.ID, u.ID, params)
	}); err != nil {
		return fmt.Errorf("%w: add member %s: %v", gateway.ErrExternalCall, u.ID, err)
	}
	b.sink.Info("Added %s to the server as %s.", u.String(), nickname)
	return nil
}

// RemoveMember kicks a member. Non-members and failed kicks are logged only.
func (b *Bot) RemoveMember(ctx context.Context, user resolve.Resolvable, reason string) error {
	if _, err := b.resolver.Guild(); err != nil {
		return err
	}
	if err := b.KickMember(ctx, user, reason); err != nil {
		b.log.Warn().Err(err).Str("user", user.String()).Msg("remove member")
	}
	return nil
}

// KickMember kicks a member and reports every failure.
func (b *Bot) KickMember(ctx context.Context, user resolve.Resolvable, reason string) error {
	g, err := b.resolver.Guild()
	if err != nil {
		return err
	}
	member, err := b.resolver.ResolveGuildMember(user)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("%w: %s", gateway.ErrMemberNotFound, user)
	}
	if reason == "" {
		reason = defaultKickReason
	}
	if err := b.session.GuildMemberDeleteWithReason(g.ID, member.User.ID, reason); err != nil {
		return fmt.Errorf("%w: kick %s: %v", gateway.ErrExternalCall, member.User.ID, err)
	}
	b.sink.Info("Kicked %s: %s", member.User.String(), reason)
	return nil
}

// AddRole grants a role. Both sides must resolve; a rejected grant is logged.
func (b *Bot) AddRole(ctx context.Context, member, role resolve.Resolvable) error {
	g, m, r, err := b.resolveRoleChange(member, role)
	if err != nil {
		return err
	}
	if err := b.session.GuildMemberRoleAdd(g.ID, m.User.ID, r.ID); err != nil {
		b.log.Warn().Err(err).Str("user", m.User.ID).Str("role", r.Name).Msg("failed to add role")
		return nil
	}
	b.log.Info().Str("user", m.User.ID).Str("role", r.Name).Msg("role added")
	return nil
}

// RemoveRole revokes a role. Both sides must resolve; a rejected revoke is logged.
func (b *Bot) RemoveRole(ctx context.Context, member, role resolve.Resolvable) error {
	g, m, r, err := b.resolveRoleChange(member, role)
	if err != nil {
		return err
	}
	if err := b.session.GuildMemberRoleRemove(g.ID, m.User.ID, r.ID); err != nil {
		b.log.Warn().Err(err).Str("user", m.User.ID).Str("role", r.Name).Msg("failed to remove role")
		return nil
	}
	b.log.Info().Str("user", m.User.ID).Str("role", r.Name).Msg("role removed")
	return nil
}

func (b *Bot) resolveRoleChange(member, role resolve.Resolvable) (*discordgo.Guild, *discordgo.Member, *discordgo.Role, error) {
	g, err := b.resolver.Guild()
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := b.resolver.ResolveGuildMember(member)
	if err != nil {
		return nil, nil, nil, err
	}
	if m == nil || m.User == nil {
		return nil, nil, nil, fmt.Errorf("%w: user %s is not a member of the guild", gateway.ErrMemberNotFound, member)
	}
	r, err := b.resolver.ResolveRole(role)
	if err != nil {
		return nil, nil, nil, err
	}
	if r == nil {
		return nil, nil, nil, fmt.Errorf("%w: %s does not resolve to a valid guild role", gateway.ErrRoleNotFound, role)
	}
	return g, m, r, nil
}

// BanUser bans a user from the available guild.
func (b *Bot) BanUser(ctx context.Context, user resolve.Resolvable, reason string) error {
	g, err := b.resolver.AvailableGuild()
	if err != nil {
		return err
	}
	userID, err := b.userID(ctx, user)
	if err != nil {
		return err
	}
	if err := b.retry(ctx, "ban", func() error {
		return b.session.GuildBanCreateWithReason(g.ID, userID, reason, 0)
	}); err != nil {
		return fmt.Errorf("%w: ban %s: %v", gateway.ErrExternalCall, userID, err)
	}
	b.sink.Warn("Banned <@%s>: %s", userID, reason)
	return nil
}

// Unban lifts a ban. Failures, including an unavailable guild, are logged only.
func (b *Bot) Unban(ctx context.Context, user resolve.Resolvable) error {
	g, err := b.resolver.AvailableGuild()
	if err != nil {
		b.log.Warn().Err(err).Str("user", user.String()).Msg("failed to unban user")
		return nil
	}
	userID, err := b.userID(ctx, user)
	if err != nil {
		b.log.Warn().Err(err).Str("user", user.String()).Msg("failed to unban user")
		return nil
	}
	if err := b.session.GuildBanDelete(g.ID, userID); err != nil {
		b.log.Warn().Err(err).Str("user", userID).Msg("failed to unban user")
		return nil
	}
	b.sink.Info("Unbanned <@%s>.", userID)
	return nil
}

// IsUserBanned looks the user up in the guild's ban list. A failed lookup is
// an error, never a silent "not banned".
func (b *Bot) IsUserBanned(ctx context.Context, user resolve.Resolvable) (BanStatus, error) {
	g, err := b.resolver.Guild()
	if err != nil {
		return BanStatus{}, err
	}
	userID, err := b.userID(ctx, user)
	if err != nil {
		return BanStatus{}, err
	}

	after := ""
	for {
		var bans []*discordgo.GuildBan
		err := b.retry(ctx, "fetch bans", func() (err error) {
			bans, err = b.session.GuildBans(g.ID, bansPageSize, "", after)
			return err
		})
		if err != nil {
			return BanStatus{}, fmt.Errorf("%w: fetch bans: %v", gateway.ErrExternalCall, err)
		}
		for _, ban := range bans {
			if ban.User != nil && ban.User.ID == userID {
				return BanStatus{Banned: true, Reason: ban.Reason}, nil
			}
		}
		if len(bans) < bansPageSize || bans[len(bans)-1].User == nil {
			return BanStatus{}, nil
		}
		after = bans[len(bans)-1].User.ID
	}
}

// SetNickname sets a member's nickname. An unresolved member is logged and
// ignored; a rejected change is returned to the caller.
func (b *Bot) SetNickname(ctx context.Context, user resolve.Resolvable, nickname string) error {
	g, err := b.resolver.Guild()
	if err != nil {
		return err
	}
	member, err := b.resolver.ResolveGuildMember(user)
	if err != nil || member == nil || member.User == nil {
		b.log.Error().Err(err).Str("user", user.String()).Msg("cannot set nickname: not a guild member")
		return nil
	}
	if err := b.session.GuildMemberNickname(g.ID, member.User.ID, nickname); err != nil {
		b.log.Error().Err(err).Str("user", member.User.ID).Msg("failed to set nickname")
		return fmt.Errorf("%w: set nickname of %s: %v", gateway.ErrExternalCall, member.User.ID, err)
	}
	return nil
}

// WelcomeChannelURL links to the configured welcome channel.
func (b *Bot) WelcomeChannelURL() (string, error) {
	g, err := b.resolver.Guild()
	if err != nil {
		return "", err
	}
	ch, err := b.resolver.ChannelByName(b.cfg.WelcomeChannel)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s", g.ID, ch.ID), nil
}

// userID resolves a reference to a user id, going to REST for bare ids.
func (b *Bot) userID(ctx context.Context, user resolve.Resolvable) (string, error) {
	u, err := b.resolver.ResolveUser(ctx, user)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("%w: %s", gateway.ErrUserNotFound, user)
	}
	return u.ID, nil
}

// retry repeats a REST call while Discord answers with a rate limit or a
// server error.
func (b *Bot) retry(ctx context.Context, op string, fn func() error) error {
	cfg := retrylimit.DefaultConfig()
	cfg.Retryable = gateway.IsTransient
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		b.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("discord call failed, retrying")
	}
	return retrylimit.Do(ctx, cfg, fn)
}
