package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/resolve"
)

// Level is the severity of a sink message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelDebug
)

var levelColors = map[Level]int{
	LevelInfo:  0x3498db,
	LevelWarn:  0xf1c40f,
	LevelError: 0xe74c3c,
	LevelDebug: 0x95a5a6,
}

var levelTitles = map[Level]string{
	LevelInfo:  "Info",
	LevelWarn:  "Warning",
	LevelError: "Error",
	LevelDebug: "Debug",
}

// Color returns the embed color of the level.
func (l Level) Color() int { return levelColors[l] }

func (l Level) String() string { return levelTitles[l] }

const sinkQueue = 128

// LogSink writes leveled messages to the diagnostic log and, best-effort,
// to the guild's log channel. Channel delivery is queued and rate-limited;
// a full queue drops messages rather than blocking the caller.
type LogSink struct {
	session  gateway.Session
	resolver *resolve.Resolver
	channel  string
	limiter  *rate.Limiter
	queue    chan *discordgo.MessageEmbed
	log      zerolog.Logger
}

func NewLogSink(s gateway.Session, r *resolve.Resolver, channel string, every time.Duration, log zerolog.Logger) *LogSink {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &LogSink{
		session:  s,
		resolver: r,
		channel:  channel,
		limiter:  rate.NewLimiter(limit, 5),
		queue:    make(chan *discordgo.MessageEmbed, sinkQueue),
		log:      log.With().Str("sink", "channel").Logger(),
	}
}

func (s *LogSink) Info(format string, args ...any)  { s.emit(LevelInfo, format, args...) }
func (s *LogSink) Warn(format string, args ...any)  { s.emit(LevelWarn, format, args...) }
func (s *LogSink) Error(format string, args ...any) { s.emit(LevelError, format, args...) }
func (s *LogSink) Debug(format string, args ...any) { s.emit(LevelDebug, format, args...) }

func (s *LogSink) emit(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	var ev *zerolog.Event
	switch level {
	case LevelWarn:
		ev = s.log.Warn()
	case LevelError:
		ev = s.log.Error()
	case LevelDebug:
		ev = s.log.Debug()
	default:
		ev = s.log.Info()
	}
	ev.Msg(msg)

	if level == LevelDebug && s.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	if s.channel == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       level.String(),
		Description: msg,
		Color:       level.Color(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	select {
	case s.queue <- embed:
	default:
		s.log.Debug().Msg("log channel queue full, message dropped")
	}
}

// Run delivers queued messages to the log channel until ctx is done.
func (s *LogSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case embed := <-s.queue:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			s.deliver(embed)
		}
	}
}

func (s *LogSink) deliver(embed *discordgo.MessageEmbed) {
	ch, err := s.resolver.ChannelByName(s.channel)
	if err != nil {
		s.log.Debug().Err(err).Msg("log channel unavailable")
		return
	}
	if err := gateway.MessageEmbed(s.session, ch.ID, embed); err != nil {
		s.log.Debug().Err(err).Msg("failed to deliver log message")
	}
}
