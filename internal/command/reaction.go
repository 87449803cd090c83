package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/resolve"
)

// ErrDuplicateReaction is returned when two reaction handlers share a name.
var ErrDuplicateReaction = errors.New("duplicate reaction handler name")

// ReactionContext is what the runtime hands a reaction handler. Message is
// always fully populated.
type ReactionContext struct {
	Session  gateway.Session
	Reaction *discordgo.MessageReaction
	Message  *discordgo.Message
	Member   *discordgo.Member
	Resolver *resolve.Resolver
	Guild    GuildOps
	Log      zerolog.Logger
}

// User returns a reference to whoever reacted.
func (c *ReactionContext) User() resolve.Resolvable {
	if c.Member != nil && c.Member.User != nil {
		return resolve.FromMember(c.Member)
	}
	return resolve.ID(c.Reaction.UserID)
}

// ReactionHandler identifies a handler; it implements ReactionAdder,
// ReactionRemover or both.
type ReactionHandler interface {
	Name() string
	Description() string
}

type ReactionAdder interface {
	OnReactionAdd(ctx context.Context, rc *ReactionContext) error
}

type ReactionRemover interface {
	OnReactionRemove(ctx context.Context, rc *ReactionContext) error
}

// ReactionRegistry holds reaction handlers in registration order.
type ReactionRegistry struct {
	handlers []ReactionHandler
	names    map[string]bool
}

func NewReactionRegistry() *ReactionRegistry {
	return &ReactionRegistry{names: make(map[string]bool)}
}

// Register adds h, rejecting empty or duplicate names.
func (r *ReactionRegistry) Register(h ReactionHandler) error {
	name := strings.ToLower(h.Name())
	if name == "" || r.names[name] {
		return fmt.Errorf("%w: %q", ErrDuplicateReaction, h.Name())
	}
	_, adds := h.(ReactionAdder)
	_, removes := h.(ReactionRemover)
	if !adds && !removes {
		return fmt.Errorf("reaction handler %q handles neither add nor remove", h.Name())
	}
	r.names[name] = true
	r.handlers = append(r.handlers, h)
	return nil
}

// All returns the handlers in registration order.
func (r *ReactionRegistry) All() []ReactionHandler {
	return append([]ReactionHandler(nil), r.handlers...)
}

func (r *ReactionRegistry) Len() int { return len(r.handlers) }
