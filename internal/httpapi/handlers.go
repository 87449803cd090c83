package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/internal/storage"
)

const deletedAccountReason = "Account deleted."

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type linkDiscordRequest struct {
	DiscordID     string `json:"discord_id" binding:"required"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	AccessToken   string `json:"access_token" binding:"required"`
}

type banRequest struct {
	Reason string `json:"reason"`
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, gateway.ErrUserNotFound),
		errors.Is(err, gateway.ErrMemberNotFound),
		errors.Is(err, gateway.ErrRoleNotFound),
		errors.Is(err, gateway.ErrChannelNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, gateway.ErrInvalidResolvable),
		errors.Is(err, gateway.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, gateway.ErrGuildNotFound),
		errors.Is(err, gateway.ErrGuildUnavailable):
		status, code = http.StatusServiceUnavailable, "guild_unavailable"
	case errors.Is(err, gateway.ErrExternalCall):
		status, code = http.StatusBadGateway, "discord_error"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	abortWithError(c, status, code, err.Error())
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_argument", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func discordIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("discord_id"))
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_argument", "discord_id must be a snowflake")
		return "", false
	}
	return id, true
}

func (s *Server) listUsers(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	u := &storage.User{Name: req.Name, Email: req.Email}
	if err := s.users.CreateUser(ctx, u); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// deleteUser removes the member from the guild (best-effort) before deleting
// the local record.
func (s *Server) deleteUser(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if u.Linked() {
		if err := s.guild.RemoveMember(ctx, resolve.ID(u.DiscordID), deletedAccountReason); err != nil {
			s.writeError(c, err)
			return
		}
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// linkDiscord completes the OAuth callback: it stores the Discord identity
// and joins the user to the guild with their access token.
func (s *Server) linkDiscord(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	var req linkDiscordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	link := storage.DiscordLink{
		ID:            req.DiscordID,
		Username:      req.Username,
		Discriminator: req.Discriminator,
		Avatar:        req.Avatar,
	}
	if err := s.users.LinkDiscord(ctx, id, link); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.guild.AddMember(ctx, resolve.ID(req.DiscordID), u.Name, req.AccessToken); err != nil {
		s.writeError(c, err)
		return
	}

	u, err = s.users.GetUser(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) syncNickname(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !u.Linked() {
		abortWithError(c, http.StatusConflict, "not_linked", "account has no linked Discord user")
		return
	}
	if err := s.guild.SetNickname(ctx, resolve.ID(u.DiscordID), u.Name); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) banStatus(c *gin.Context) {
	discordID, ok := discordIDParam(c)
	if !ok {
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	st, err := s.guild.IsUserBanned(ctx, resolve.ID(discordID))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) ban(c *gin.Context) {
	discordID, ok := discordIDParam(c)
	if !ok {
		return
	}
	var req banRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid_body", err.Error())
			return
		}
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	if err := s.guild.BanUser(ctx, resolve.ID(discordID), req.Reason); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) unban(c *gin.Context) {
	discordID, ok := discordIDParam(c)
	if !ok {
		return
	}
	ctx, cancel := s.ctx(c)
	defer cancel()

	if err := s.guild.Unban(ctx, resolve.ID(discordID)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) welcome(c *gin.Context) {
	url, err := s.guild.WelcomeChannelURL()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (s *Server) listCommands(c *gin.Context) {
	all := s.guild.Commands().GetAll()
	out := make([]command.Descriptor, 0, len(all))
	for _, cmd := range all {
		out = append(out, command.Describe(cmd))
	}
	c.JSON(http.StatusOK, gin.H{"commands": out})
}

func (s *Server) commandHistory(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	guildID := c.DefaultQuery("guild_id", s.guildID)
	hist, err := s.history.CommandHistory(ctx, guildID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": hist})
}
