package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id                    INTEGER PRIMARY KEY AUTOINCREMENT,
		name                  TEXT NOT NULL,
		email                 TEXT NOT NULL UNIQUE,
		discord_id            TEXT UNIQUE,
		discord_username      TEXT,
		discord_discriminator TEXT,
		discord_avatar        TEXT,
		created_at            DATETIME NOT NULL,
		updated_at            DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS command_history (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id     TEXT NOT NULL,
		channel_id   TEXT,
		channel_name TEXT,
		user_id      TEXT,
		username     TEXT,
		command      TEXT NOT NULL,
		args         TEXT,
		created_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_command_history_guild ON command_history(guild_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const userColumns = `id, name, email, discord_id, discord_username, discord_discriminator, discord_avatar, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var discordID, username, disc, avatar sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &discordID, &username, &disc, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.DiscordID = discordID.String
	u.DiscordUsername = username.String
	u.DiscordDiscriminator = disc.String
	u.DiscordAvatar = avatar.String
	return &u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, discord_id, discord_username, discord_discriminator, discord_avatar, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, nullable(u.DiscordID), nullable(u.DiscordUsername), nullable(u.DiscordDiscriminator), nullable(u.DiscordAvatar), now, now,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) FindByDiscordID(ctx context.Context, discordID string) (*User, error) {
	if discordID == "" {
		return nil, ErrNotFound
	}
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE discord_id = ?`, discordID))
}

func (s *SQLiteStore) LinkDiscord(ctx context.Context, userID int64, link DiscordLink) error {
	return s.updateDiscord(ctx, userID, nullable(link.ID), nullable(link.Username), nullable(link.Discriminator), nullable(link.Avatar))
}

func (s *SQLiteStore) ClearDiscord(ctx context.Context, userID int64) error {
	var null sql.NullString
	return s.updateDiscord(ctx, userID, null, null, null, null)
}

func (s *SQLiteStore) updateDiscord(ctx context.Context, userID int64, id, username, disc, avatar sql.NullString) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET discord_id = ?, discord_username = ?, discord_discriminator = ?, discord_avatar = ?, updated_at = ?
		 WHERE id = ?`,
		id, username, disc, avatar, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("update discord link: %w", err)
	}
	return expectOne(res)
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendCommand(ctx context.Context, rec CommandRecord) error {
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO command_history (guild_id, channel_id, channel_name, user_id, username, command, args, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GuildID, rec.ChannelID, rec.ChannelName, rec.UserID, rec.Username, rec.Command, rec.Args, rec.Datetime,
	); err != nil {
		return fmt.Errorf("append command: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM command_history WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM command_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?)`,
		rec.GuildID, rec.GuildID, commandHistoryLimit,
	); err != nil {
		return fmt.Errorf("trim command history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) CommandHistory(ctx context.Context, guildID string) ([]CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, channel_id, channel_name, user_id, username, command, args, created_at
		 FROM command_history WHERE guild_id = ? ORDER BY id DESC`, guildID)
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
