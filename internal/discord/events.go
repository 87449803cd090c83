package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type reactionEvent struct {
	reaction *discordgo.MessageReaction
	member   *discordgo.Member
	added    bool
}

type banEvent struct {
	guildID string
	user    *discordgo.User
	added   bool
}

// events holds one inbound channel per gateway event kind.
type events struct {
	ready         chan *discordgo.Ready
	messages      chan *discordgo.Message
	reactions     chan reactionEvent
	memberAdds    chan *discordgo.Member
	memberRemoves chan *discordgo.Member
	bans          chan banEvent
}

func newEvents(buffer int) events {
	return events{
		ready:         make(chan *discordgo.Ready, 1),
		messages:      make(chan *discordgo.Message, buffer),
		reactions:     make(chan reactionEvent, buffer),
		memberAdds:    make(chan *discordgo.Member, buffer),
		memberRemoves: make(chan *discordgo.Member, buffer),
		bans:          make(chan banEvent, buffer),
	}
}

func push[T any](ctx context.Context, ch chan<- T, v T) {
	select {
	case ch <- v:
	case <-ctx.Done():
	}
}

// attach wires discordgo callbacks into the channels and returns the
// functions removing them again.
func (e events) attach(ctx context.Context, conn connection) []func() {
	return []func(){
		conn.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			push(ctx, e.ready, r)
		}),
		conn.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			push(ctx, e.messages, m.Message)
		}),
		conn.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
			push(ctx, e.reactions, reactionEvent{reaction: r.MessageReaction, member: r.Member, added: true})
		}),
		conn.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
			push(ctx, e.reactions, reactionEvent{reaction: r.MessageReaction})
		}),
		conn.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
			push(ctx, e.memberAdds, m.Member)
		}),
		conn.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
			push(ctx, e.memberRemoves, m.Member)
		}),
		conn.AddHandler(func(_ *discordgo.Session, ban *discordgo.GuildBanAdd) {
			push(ctx, e.bans, banEvent{guildID: ban.GuildID, user: ban.User, added: true})
		}),
		conn.AddHandler(func(_ *discordgo.Session, ban *discordgo.GuildBanRemove) {
			push(ctx, e.bans, banEvent{guildID: ban.GuildID, user: ban.User})
		}),
	}
}

func loop[T any](ctx context.Context, wg *sync.WaitGroup, ch <-chan T, handle func(context.Context, T)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case v := <-ch:
				handle(ctx, v)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// startLoops runs one dispatch loop per event kind until ctx is done.
func (b *Bot) startLoops(ctx context.Context, wg *sync.WaitGroup) {
	loop(ctx, wg, b.events.ready, func(_ context.Context, r *discordgo.Ready) { b.onReady(r) })
	loop(ctx, wg, b.events.messages, b.handleMessage)
	loop(ctx, wg, b.events.reactions, func(ctx context.Context, ev reactionEvent) {
		b.handleReaction(ctx, ev.reaction, ev.member, ev.added)
	})
	loop(ctx, wg, b.events.memberAdds, b.handleMemberAdd)
	loop(ctx, wg, b.events.memberRemoves, b.handleMemberRemove)
	loop(ctx, wg, b.events.bans, func(_ context.Context, ev banEvent) { b.handleBan(ev) })
}
