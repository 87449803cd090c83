package resolve

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/gateway"
)

// Resolver resolves references within the single configured guild.
type Resolver struct {
	session gateway.Session
	guildID string
}

func New(s gateway.Session, guildID string) *Resolver {
	return &Resolver{session: s, guildID: guildID}
}

// GuildID returns the configured guild id.
func (r *Resolver) GuildID() string { return r.guildID }

// Guild returns the configured guild from the state cache.
func (r *Resolver) Guild() (*discordgo.Guild, error) {
	g, err := r.session.GetState().Guild(r.guildID)
	if err != nil || g == nil {
		return nil, fmt.Errorf("%w: %s", gateway.ErrGuildNotFound, r.guildID)
	}
	return g, nil
}

// AvailableGuild returns the configured guild, failing if Discord reports
// it as unavailable.
func (r *Resolver) AvailableGuild() (*discordgo.Guild, error) {
	g, err := r.Guild()
	if err != nil {
		return nil, err
	}
	if g.Unavailable {
		return nil, fmt.Errorf("%w: %s", gateway.ErrGuildUnavailable, g.ID)
	}
	return g, nil
}

// ResolveUser returns the user a reference points at. A bare id is looked up
// over REST; an unknown id yields nil without error.
func (r *Resolver) ResolveUser(ctx context.Context, in Resolvable) (*discordgo.User, error) {
	switch in.kind {
	case KindNone:
		return nil, nil
	case KindID:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u, err := r.session.User(in.id)
		if err != nil {
			if gateway.IsNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: fetch user %s: %v", gateway.ErrExternalCall, in.id, err)
		}
		return u, nil
	case KindMember:
		return in.member.User, nil
	case KindGuild:
		if in.guild.OwnerID == "" {
			return nil, nil
		}
		return r.ResolveUser(ctx, ID(in.guild.OwnerID))
	case KindMessage:
		return in.message.Author, nil
	case KindUser:
		return in.user, nil
	default:
		return nil, invalid("user", in)
	}
}

// ResolveGuildMember returns the cached guild member for a reference, or nil
// when it is not cached. It never touches the network.
func (r *Resolver) ResolveGuildMember(in Resolvable) (*discordgo.Member, error) {
	var userID string
	switch in.kind {
	case KindNone:
		return nil, nil
	case KindMember:
		if in.member.User == nil {
			return nil, nil
		}
		if in.member.GuildID == "" || in.member.GuildID == r.guildID {
			return in.member, nil
		}
		userID = in.member.User.ID
	case KindID:
		userID = in.id
	case KindUser:
		userID = in.user.ID
	case KindMessage:
		if in.message.Author != nil {
			userID = in.message.Author.ID
		}
	case KindGuild:
		userID = in.guild.OwnerID
	default:
		return nil, invalid("member", in)
	}
	if userID == "" {
		return nil, nil
	}

	if _, err := r.Guild(); err != nil {
		return nil, err
	}
	m, err := r.session.GetState().Member(r.guildID, userID)
	if err != nil {
		return nil, nil
	}
	return m, nil
}

// ResolveRole returns the guild role matching a reference. A bare string is
// matched against role ids first and exact role names second.
func (r *Resolver) ResolveRole(in Resolvable) (*discordgo.Role, error) {
	g, err := r.AvailableGuild()
	if err != nil {
		return nil, err
	}

	switch in.kind {
	case KindNone:
		return nil, nil
	case KindRole:
		return in.role, nil
	case KindID:
		st := r.session.GetState()
		if role, err := st.Role(g.ID, in.id); err == nil {
			return role, nil
		}
		st.RLock()
		defer st.RUnlock()
		for _, role := range g.Roles {
			if role.Name == in.id {
				return role, nil
			}
		}
		return nil, nil
	default:
		return nil, invalid("role", in)
	}
}

// ResolveChannel looks a channel up in the guild by id or exact name, then in
// the client-wide cache, then falls back to the channel a message was posted in.
func (r *Resolver) ResolveChannel(ctx context.Context, in Resolvable) (*discordgo.Channel, error) {
	switch in.kind {
	case KindNone:
		return nil, nil
	case KindChannel:
		return in.channel, nil
	case KindID:
		if g, err := r.Guild(); err == nil {
			if c := r.guildChannel(g, in.id); c != nil {
				return c, nil
			}
		}
		if c, err := r.session.GetState().Channel(in.id); err == nil {
			return c, nil
		}
		return nil, nil
	case KindMessage:
		if c, err := r.session.GetState().Channel(in.message.ChannelID); err == nil {
			return c, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := r.session.Channel(in.message.ChannelID)
		if err != nil {
			if gateway.IsNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: fetch channel %s: %v", gateway.ErrExternalCall, in.message.ChannelID, err)
		}
		return c, nil
	default:
		return nil, invalid("channel", in)
	}
}

// ChannelByName returns the guild channel with exactly this name.
func (r *Resolver) ChannelByName(name string) (*discordgo.Channel, error) {
	g, err := r.Guild()
	if err != nil {
		return nil, err
	}
	st := r.session.GetState()
	st.RLock()
	defer st.RUnlock()
	for _, c := range g.Channels {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", gateway.ErrChannelNotFound, name)
}

// guildChannel matches a guild channel by id or exact name under the state lock.
func (r *Resolver) guildChannel(g *discordgo.Guild, ref string) *discordgo.Channel {
	st := r.session.GetState()
	st.RLock()
	defer st.RUnlock()
	for _, c := range g.Channels {
		if c.ID == ref || c.Name == ref {
			return c
		}
	}
	return nil
}
