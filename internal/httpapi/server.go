// Package httpapi exposes the guild administration surface to the web
// application as a small JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"discord-user-manager/internal/discord"
	"discord-user-manager/internal/logging"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

const requestTimeout = 10 * time.Second

// GuildAdmin is the part of the bot the API drives.
type GuildAdmin interface {
	AddMember(ctx context.Context, user resolve.Resolvable, nickname, accessToken string) error
	RemoveMember(ctx context.Context, user resolve.Resolvable, reason string) error
	SetNickname(ctx context.Context, user resolve.Resolvable, nickname string) error
	BanUser(ctx context.Context, user resolve.Resolvable, reason string) error
	Unban(ctx context.Context, user resolve.Resolvable) error
	IsUserBanned(ctx context.Context, user resolve.Resolvable) (discord.BanStatus, error)
	WelcomeChannelURL() (string, error)
	Commands() *cmd.Registry
}

var _ GuildAdmin = (*discord.Bot)(nil)

type Options struct {
	GuildID  string
	AdminKey string
	Users    storage.UserStore
	History  storage.CommandHistory
	Guild    GuildAdmin
	Log      zerolog.Logger
}

type Server struct {
	guildID  string
	adminKey string
	users    storage.UserStore
	history  storage.CommandHistory
	guild    GuildAdmin
	log      zerolog.Logger
	router   *gin.Engine
}

func NewServer(opts Options) *Server {
	s := &Server{
		guildID:  opts.GuildID,
		adminKey: opts.AdminKey,
		users:    opts.Users,
		history:  opts.History,
		guild:    opts.Guild,
		log:      logging.Component(opts.Log, "http"),
		router:   gin.New(),
	}

	r := s.router
	r.Use(gin.Recovery())
	r.Use(s.loggingMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	v1 := r.Group("/api/v1")
	v1.Use(s.adminAuthMiddleware())
	{
		v1.GET("/users", s.listUsers)
		v1.POST("/users", s.createUser)
		v1.GET("/users/:id", s.getUser)
		v1.DELETE("/users/:id", s.deleteUser)
		v1.POST("/users/:id/discord", s.linkDiscord)
		v1.POST("/users/:id/nickname", s.syncNickname)

		v1.GET("/bans/:discord_id", s.banStatus)
		v1.POST("/bans/:discord_id", s.ban)
		v1.DELETE("/bans/:discord_id", s.unban)

		v1.GET("/welcome", s.welcome)
		v1.GET("/commands", s.listCommands)
		v1.GET("/history", s.commandHistory)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("admin API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
