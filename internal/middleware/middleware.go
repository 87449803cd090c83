// Package middleware holds the gates every text command passes through before
// its handler runs. Chain applies them in dispatch order.
package middleware

import (
	"discord-user-manager/internal/command"
	"discord-user-manager/internal/cooldown"
	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

// Chain returns the standard gates: guild-only, permissions, cooldown,
// required arguments, then command history.
func Chain(tracker *cooldown.Tracker, history storage.CommandHistory) []cmd.Middleware {
	return []cmd.Middleware{
		WithGuildOnly(),
		WithUserPermissionCheck(),
		WithCooldown(tracker),
		WithArgsCheck(),
		WithCommandLogger(history),
	}
}

func messageContext(inv *cmd.Invocation) (*command.MessageContext, bool) {
	mc, ok := inv.Data.(*command.MessageContext)
	return mc, ok && mc != nil && mc.Message != nil
}
