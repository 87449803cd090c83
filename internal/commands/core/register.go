// Package core holds the general-purpose text commands.
package core

import (
	"discord-user-manager/internal/command"
	"discord-user-manager/pkg/cmd"
)

// Register adds ping, help and args-info to reg behind mws.
func Register(reg *cmd.Registry, mws ...cmd.Middleware) error {
	for _, c := range []command.DiscordCommand{
		&PingCommand{},
		&HelpCommand{},
		&ArgsInfoCommand{},
	} {
		if err := command.RegisterCommand(reg, c, mws...); err != nil {
			return err
		}
	}
	return nil
}
