// Package resolve turns loosely specified references to Discord entities into
// canonical users, members, roles and channels.
package resolve

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/gateway"
)

// Kind tags the shape of a Resolvable.
type Kind int

const (
	KindNone Kind = iota
	KindID
	KindUser
	KindMember
	KindGuild
	KindMessage
	KindRole
	KindChannel
)

var kindNames = map[Kind]string{
	KindNone:    "none",
	KindID:      "id",
	KindUser:    "user",
	KindMember:  "member",
	KindGuild:   "guild",
	KindMessage: "message",
	KindRole:    "role",
	KindChannel: "channel",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Resolvable is a reference to a Discord entity in one of several shapes.
// Construct it with one of the From* helpers or ID.
type Resolvable struct {
	kind    Kind
	id      string
	user    *discordgo.User
	member  *discordgo.Member
	guild   *discordgo.Guild
	message *discordgo.Message
	role    *discordgo.Role
	channel *discordgo.Channel
}

// None is the absent reference.
var None = Resolvable{}

func ID(id string) Resolvable {
	if id == "" {
		return None
	}
	return Resolvable{kind: KindID, id: id}
}

func FromUser(u *discordgo.User) Resolvable {
	if u == nil {
		return None
	}
	return Resolvable{kind: KindUser, user: u}
}

func FromMember(m *discordgo.Member) Resolvable {
	if m == nil {
		return None
	}
	return Resolvable{kind: KindMember, member: m}
}

func FromGuild(g *discordgo.Guild) Resolvable {
	if g == nil {
		return None
	}
	return Resolvable{kind: KindGuild, guild: g}
}

func FromMessage(m *discordgo.Message) Resolvable {
	if m == nil {
		return None
	}
	return Resolvable{kind: KindMessage, message: m}
}

func FromRole(r *discordgo.Role) Resolvable {
	if r == nil {
		return None
	}
	return Resolvable{kind: KindRole, role: r}
}

func FromChannel(c *discordgo.Channel) Resolvable {
	if c == nil {
		return None
	}
	return Resolvable{kind: KindChannel, channel: c}
}

// Kind reports the shape of the reference.
func (r Resolvable) Kind() Kind { return r.kind }

// IsNone reports whether the reference is absent.
func (r Resolvable) IsNone() bool { return r.kind == KindNone }

// Identifier returns the id carried by the reference, if any.
func (r Resolvable) Identifier() string {
	switch r.kind {
	case KindID:
		return r.id
	case KindUser:
		return r.user.ID
	case KindMember:
		if r.member.User != nil {
			return r.member.User.ID
		}
	case KindGuild:
		return r.guild.ID
	case KindMessage:
		return r.message.ID
	case KindRole:
		return r.role.ID
	case KindChannel:
		return r.channel.ID
	}
	return ""
}

func (r Resolvable) String() string {
	if id := r.Identifier(); id != "" {
		return r.kind.String() + ":" + id
	}
	return r.kind.String()
}

// InvalidResolvableError names a reference shape that cannot produce the
// requested entity.
type InvalidResolvableError struct {
	Want string
	Got  Kind
}

func (e *InvalidResolvableError) Error() string {
	return fmt.Sprintf("%s: cannot resolve %s from %s", gateway.ErrInvalidResolvable, e.Want, e.Got)
}

func (e *InvalidResolvableError) Unwrap() error { return gateway.ErrInvalidResolvable }

func invalid(want string, r Resolvable) error {
	return &InvalidResolvableError{Want: want, Got: r.kind}
}
