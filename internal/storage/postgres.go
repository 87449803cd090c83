package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS users (
		id                    BIGSERIAL PRIMARY KEY,
		name                  TEXT NOT NULL,
		email                 TEXT NOT NULL UNIQUE,
		discord_id            TEXT UNIQUE,
		discord_username      TEXT,
		discord_discriminator TEXT,
		discord_avatar        TEXT,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS command_history (
		id           BIGSERIAL PRIMARY KEY,
		guild_id     TEXT NOT NULL,
		channel_id   TEXT NOT NULL DEFAULT '',
		channel_name TEXT NOT NULL DEFAULT '',
		user_id      TEXT NOT NULL DEFAULT '',
		username     TEXT NOT NULL DEFAULT '',
		command      TEXT NOT NULL,
		args         TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_command_history_guild ON command_history(guild_id, id);
	`)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPgUser(row pgx.Row) (*User, error) {
	var u User
	var discordID, username, disc, avatar *string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &discordID, &username, &disc, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.DiscordID = deref(discordID)
	u.DiscordUsername = deref(username)
	u.DiscordDiscriminator = deref(disc)
	u.DiscordAvatar = deref(avatar)
	return &u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, discord_id, discord_username, discord_discriminator, discord_avatar, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		u.Name, u.Email, ptr(u.DiscordID), ptr(u.DiscordUsername), ptr(u.DiscordDiscriminator), ptr(u.DiscordAvatar), now,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return scanPgUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanPgUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) FindByDiscordID(ctx context.Context, discordID string) (*User, error) {
	if discordID == "" {
		return nil, ErrNotFound
	}
	return scanPgUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE discord_id = $1`, discordID))
}

func (s *PostgresStore) LinkDiscord(ctx context.Context, userID int64, link DiscordLink) error {
	return s.updateDiscord(ctx, userID, ptr(link.ID), ptr(link.Username), ptr(link.Discriminator), ptr(link.Avatar))
}

func (s *PostgresStore) ClearDiscord(ctx context.Context, userID int64) error {
	return s.updateDiscord(ctx, userID, nil, nil, nil, nil)
}

func (s *PostgresStore) updateDiscord(ctx context.Context, userID int64, id, username, disc, avatar *string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET discord_id = $1, discord_username = $2, discord_discriminator = $3, discord_avatar = $4, updated_at = $5
		 WHERE id = $6`,
		id, username, disc, avatar, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("update discord link: %w", err)
	}
	return expectOneTag(tag)
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneTag(tag)
}

func expectOneTag(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendCommand(ctx context.Context, rec CommandRecord) error {
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now().UTC()
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO command_history (guild_id, channel_id, channel_name, user_id, username, command, args, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.GuildID, rec.ChannelID, rec.ChannelName, rec.UserID, rec.Username, rec.Command, rec.Args, rec.Datetime,
		); err != nil {
			return fmt.Errorf("append command: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM command_history WHERE guild_id = $1 AND id NOT IN (
				SELECT id FROM command_history WHERE guild_id = $1 ORDER BY id DESC LIMIT $2)`,
			rec.GuildID, commandHistoryLimit,
		); err != nil {
			return fmt.Errorf("trim command history: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) CommandHistory(ctx context.Context, guildID string) ([]CommandRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT guild_id, channel_id, channel_name, user_id, username, command, args, created_at
		 FROM command_history WHERE guild_id = $1 ORDER BY id DESC`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		if err := rows.Scan(&rec.GuildID, &rec.ChannelID, &rec.ChannelName, &rec.UserID, &rec.Username, &rec.Command, &rec.Args, &rec.Datetime); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
