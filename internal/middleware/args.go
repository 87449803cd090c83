package middleware

import (
	"context"
	"fmt"

	"discord-user-manager/internal/command"
	"discord-user-manager/pkg/cmd"
)

// WithArgsCheck answers with the usage hint when a command that needs
// arguments is invoked without any.
func WithArgsCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := messageContext(inv)
			if !ok || len(inv.Args) > 0 {
				return c.Run(ctx, inv)
			}
			meta := command.Meta(c)
			if r, ok := meta.(command.ArgsRequirer); !ok || !r.RequiresArgs() {
				return c.Run(ctx, inv)
			}

			msg := fmt.Sprintf("The %s command expects arguments.", c.Name())
			if u, ok := meta.(command.Usager); ok && u.Usage() != "" {
				msg += fmt.Sprintf("\nExpected usage: %s%s %s", mc.Prefix, c.Name(), u.Usage())
			}
			mc.Replyf("%s", msg)
			return nil
		})
	}
}
