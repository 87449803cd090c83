package core

import (
	"context"
	"fmt"
	"strings"

	"discord-user-manager/internal/command"
)

type ArgsInfoCommand struct{}

func (c *ArgsInfoCommand) Name() string        { return "args-info" }
func (c *ArgsInfoCommand) Description() string { return "Information about the arguments provided." }
func (c *ArgsInfoCommand) Category() string    { return "Utilities" }
func (c *ArgsInfoCommand) RequiresArgs() bool  { return true }

func (c *ArgsInfoCommand) Run(ctx context.Context, mc *command.MessageContext) error {
	if len(mc.Args) == 0 {
		return mc.Send(fmt.Sprintf("You didn't provide any arguments, %s!", mc.Author().Mention()))
	}
	if mc.Args[0] == "foo" {
		return mc.Send("bar")
	}
	return mc.Send(fmt.Sprintf("Arguments: %s\nArguments length: %d", strings.Join(mc.Args, ","), len(mc.Args)))
}
