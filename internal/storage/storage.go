// Package storage persists local user records and the command history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const commandHistoryLimit int = 20

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// User is a local account record. The Discord fields are empty while the
// account is not linked.
type User struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	DiscordID            string    `json:"discord_id,omitempty"`
	DiscordUsername      string    `json:"discord_username,omitempty"`
	DiscordDiscriminator string    `json:"discord_discriminator,omitempty"`
	DiscordAvatar        string    `json:"discord_avatar,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Linked reports whether the account carries a Discord identity.
func (u *User) Linked() bool { return u.DiscordID != "" }

// DiscordLink is the Discord identity attached to a local account.
type DiscordLink struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// CommandRecord is one executed text command.
type CommandRecord struct {
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Args        string    `json:"args"`
	Datetime    time.Time `json:"datetime"`
}

// UserStore is the local account store the bot and the admin API use.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	FindByDiscordID(ctx context.Context, discordID string) (*User, error)
	LinkDiscord(ctx context.Context, userID int64, link DiscordLink) error
	ClearDiscord(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, id int64) error
}

// CommandHistory keeps the most recent commands per guild.
type CommandHistory interface {
	AppendCommand(ctx context.Context, rec CommandRecord) error
	CommandHistory(ctx context.Context, guildID string) ([]CommandRecord, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	CommandHistory
	Close() error
}

// Options select and configure a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open connects to the configured backend and ensures its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		return NewSQLiteStore(opts.Path)
	case "postgres":
		return NewPostgresStore(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
