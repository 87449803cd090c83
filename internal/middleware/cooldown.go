package middleware

import (
	"context"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/cooldown"
	"discord-user-manager/pkg/cmd"
)

// WithCooldown rate-limits each invoker per command.
func WithCooldown(tracker *cooldown.Tracker) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := messageContext(inv)
			if !ok {
				return c.Run(ctx, inv)
			}
			cd, ok := command.Meta(c).(command.Cooldowner)
			if !ok {
				return c.Run(ctx, inv)
			}

			allowed, wait := tracker.Check(c.Name(), mc.Author().ID, cd.Cooldown())
			if !allowed {
				left := cooldown.FormatSeconds(wait)
				unit := "seconds"
				if left == "1.0" {
					unit = "second"
				}
				mc.Replyf("Please wait %s more %s before executing the %s command again.", left, unit, c.Name())
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
