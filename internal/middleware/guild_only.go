package middleware

import (
	"context"

	"discord-user-manager/internal/command"
	"discord-user-manager/pkg/cmd"
)

// WithGuildOnly refuses commands flagged guild-only outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := messageContext(inv)
			if !ok || mc.InGuild() {
				return c.Run(ctx, inv)
			}
			if g, ok := command.Meta(c).(command.GuildOnlyer); ok && g.GuildOnly() {
				mc.Replyf("The `%s` command can only be executed from within a guild server.", c.Name())
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
