// Package reactions holds the reaction handlers the bot dispatches to.
package reactions

import (
	"context"
	"fmt"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/resolve"
)

// AddRole grants or revokes a role when a mapped emoji is added to or removed
// from a message in the welcome channel.
type AddRole struct {
	WelcomeChannel string
	Roles          map[string]string
}

func (h *AddRole) Name() string { return "add_role" }

func (h *AddRole) Description() string {
	return "Add/Remove a role from a user when a reaction is added or removed from a message in the welcome channel."
}

func (h *AddRole) OnReactionAdd(ctx context.Context, rc *command.ReactionContext) error {
	return h.apply(ctx, rc, rc.Guild.AddRole)
}

func (h *AddRole) OnReactionRemove(ctx context.Context, rc *command.ReactionContext) error {
	return h.apply(ctx, rc, rc.Guild.RemoveRole)
}

func (h *AddRole) apply(ctx context.Context, rc *command.ReactionContext, op func(context.Context, resolve.Resolvable, resolve.Resolvable) error) error {
	channel, err := rc.Resolver.ResolveChannel(ctx, resolve.FromMessage(rc.Message))
	if err != nil {
		return err
	}
	if channel == nil || channel.Name != h.WelcomeChannel {
		return nil
	}

	emoji := rc.Reaction.Emoji.Name
	roleName, ok := h.Roles[emoji]
	if !ok {
		rc.Log.Debug().Str("emoji", emoji).Msg("no configured role for emoji")
		return nil
	}

	if err := op(ctx, rc.User(), resolve.ID(roleName)); err != nil {
		return fmt.Errorf("role %s for %s: %w", roleName, rc.User(), err)
	}
	return nil
}
