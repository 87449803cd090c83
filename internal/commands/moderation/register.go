// Package moderation holds text commands that act on members and messages.
package moderation

import (
	"discord-user-manager/internal/command"
	"discord-user-manager/pkg/cmd"
)

// Register adds kick and prune to reg behind mws.
func Register(reg *cmd.Registry, mws ...cmd.Middleware) error {
	for _, c := range []command.DiscordCommand{
		&KickCommand{},
		&PruneCommand{},
	} {
		if err := command.RegisterCommand(reg, c, mws...); err != nil {
			return err
		}
	}
	return nil
}
