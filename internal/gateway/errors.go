package gateway

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrGuildNotFound     = errors.New("guild not found")
	ErrGuildUnavailable  = errors.New("guild unavailable")
	ErrUserNotFound      = errors.New("user not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrRoleNotFound      = errors.New("role not found")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrInvalidResolvable = errors.New("invalid resolvable type")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrOnCooldown        = errors.New("command on cooldown")
	ErrExternalCall      = errors.New("discord call failed")
)

// IsNotFound reports whether err is a Discord REST 404.
func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// IsTransient reports whether err is a rate-limited or server-side REST
// failure worth retrying.
func IsTransient(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	return false
}
