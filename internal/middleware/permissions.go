package middleware

import (
	"context"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/pkg/cmd"
)

const permissionDenied = "You do not have the required permissions to execute that command."

// WithUserPermissionCheck requires the invoker to hold every permission the
// command declares. The check only applies inside a guild; an invoker whose
// membership cannot be resolved is denied.
func WithUserPermissionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := messageContext(inv)
			if !ok || !mc.InGuild() {
				return c.Run(ctx, inv)
			}
			p, ok := command.Meta(c).(command.Permissioner)
			if !ok || p.Permissions() == 0 {
				return c.Run(ctx, inv)
			}
			required := p.Permissions()

			if _, err := mc.Resolver.Guild(); err != nil {
				mc.Log.Warn().Err(err).Str("command", c.Name()).Msg("permission check without guild")
				mc.Replyf(permissionDenied)
				return nil
			}
			member, err := mc.Resolver.ResolveGuildMember(resolve.FromUser(mc.Author()))
			if err != nil || member == nil {
				mc.Log.Debug().Err(err).Str("user", mc.Author().ID).Msg("invoker is not a cached guild member")
				mc.Replyf(permissionDenied)
				return nil
			}
			perms, err := mc.Resolver.MemberPermissions(member)
			if err != nil {
				mc.Log.Warn().Err(err).Str("command", c.Name()).Msg("permission check without guild")
				mc.Replyf(permissionDenied)
				return nil
			}

			if !resolve.HasAll(perms, required) {
				mc.Log.Debug().
					Str("command", c.Name()).
					Str("user", mc.Author().ID).
					Str("required", resolve.FormatPermissions(required)).
					Msg("permission denied")
				mc.Replyf(permissionDenied)
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
