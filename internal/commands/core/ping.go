package core

import (
	"context"
	"time"

	"discord-user-manager/internal/command"
)

type PingCommand struct{}

func (c *PingCommand) Name() string            { return "ping" }
func (c *PingCommand) Description() string     { return "Send a ping to this bot to make sure it is working correctly." }
func (c *PingCommand) Aliases() []string       { return []string{"p"} }
func (c *PingCommand) Category() string        { return "Utilities" }
func (c *PingCommand) Cooldown() time.Duration { return 5 * time.Second }

func (c *PingCommand) Run(ctx context.Context, mc *command.MessageContext) error {
	return mc.Send("Pong.")
}
