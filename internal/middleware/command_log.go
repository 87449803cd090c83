package middleware

import (
	"context"
	"strings"

	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

// WithCommandLogger appends every command that reaches its handler to the
// guild's history. History failures are logged and never fail the command.
func WithCommandLogger(history storage.CommandHistory) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			mc, ok := messageContext(inv)
			if !ok || history == nil || !mc.InGuild() {
				return err
			}

			rec := storage.CommandRecord{
				GuildID:   mc.Message.GuildID,
				ChannelID: mc.Message.ChannelID,
				UserID:    mc.Author().ID,
				Username:  mc.Author().Username,
				Command:   c.Name(),
				Args:      strings.Join(inv.Args, " "),
			}
			if ch, cerr := mc.Session.GetState().Channel(mc.Message.ChannelID); cerr == nil {
				rec.ChannelName = ch.Name
			}
			if herr := history.AppendCommand(ctx, rec); herr != nil {
				mc.Log.Warn().Err(herr).Str("command", c.Name()).Msg("failed to log command")
			}
			return err
		})
	}
}
