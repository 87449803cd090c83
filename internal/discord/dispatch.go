package discord

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/gateway"
	"discord-user-manager/pkg/cmd"
)

// handleMessage parses a prefixed text command and runs it through its
// middleware chain. Handler failures never escape this function.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	prefix := b.cfg.CommandPrefix
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(m.Content[len(prefix):])
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	mc := &command.MessageContext{
		Session:  b.session,
		Message:  m,
		Args:     args,
		Prefix:   prefix,
		Invoked:  name,
		Registry: b.commands,
		Resolver: b.resolver,
		Guild:    b,
		History:  b.history,
		Log:      b.log,
	}

	c := b.commands.Lookup(name)
	if c == nil {
		mc.Replyf("The %s command is not one of the recognized commands.", name)
		return
	}

	b.log.Debug().Str("command", c.Name()).Str("user", m.Author.ID).Strs("args", args).Msg("processing command")
	if err := b.execute(ctx, c, mc); err != nil {
		b.log.Error().Err(err).Str("command", c.Name()).Str("user", m.Author.ID).Msg("command failed")
		b.sink.Error("Command %s failed for %s: %v", c.Name(), m.Author.String(), err)
		mc.Replyf("There was an error trying to execute the %s command: %v", c.Name(), err)
	}
}

func (b *Bot) execute(ctx context.Context, c cmd.Command, mc *command.MessageContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("stack", string(debug.Stack())).Msg("command panicked")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Run(ctx, &cmd.Invocation{Args: mc.Args, Data: mc})
}

// handleReaction hands a reaction to every registered handler. The message is
// fetched when it is not cached; if that fails the event is dropped.
func (b *Bot) handleReaction(ctx context.Context, r *discordgo.MessageReaction, member *discordgo.Member, added bool) {
	if r == nil {
		return
	}
	if r.GuildID != "" && r.GuildID != b.cfg.GuildID {
		return
	}
	if st := b.session.GetState(); st != nil && st.User != nil && st.User.ID == r.UserID {
		return
	}

	msg, err := b.fetchMessage(r.ChannelID, r.MessageID)
	if err != nil {
		b.log.Warn().Err(err).Str("message", r.MessageID).Msg("failed to fetch reacted message")
		return
	}

	rc := &command.ReactionContext{
		Session:  b.session,
		Reaction: r,
		Message:  msg,
		Member:   member,
		Resolver: b.resolver,
		Guild:    b,
		Log:      b.log,
	}
	for _, h := range b.reactions.All() {
		b.runReaction(ctx, h, rc, added)
	}
}

func (b *Bot) runReaction(ctx context.Context, h command.ReactionHandler, rc *command.ReactionContext, added bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("handler", h.Name()).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("reaction handler panicked")
		}
	}()

	var err error
	if added {
		if a, ok := h.(command.ReactionAdder); ok {
			err = a.OnReactionAdd(ctx, rc)
		}
	} else {
		if rm, ok := h.(command.ReactionRemover); ok {
			err = rm.OnReactionRemove(ctx, rc)
		}
	}
	if err != nil {
		b.log.Warn().Err(err).Str("handler", h.Name()).Msg("reaction handler failed")
	}
}

func (b *Bot) fetchMessage(channelID, messageID string) (*discordgo.Message, error) {
	if st := b.session.GetState(); st != nil {
		if m, err := st.Message(channelID, messageID); err == nil {
			return m, nil
		}
	}
	m, err := b.session.ChannelMessage(channelID, messageID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch message %s: %v", gateway.ErrExternalCall, messageID, err)
	}
	return m, nil
}
