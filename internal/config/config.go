// Package config loads runtime settings from the environment, an optional
// .env file and an optional YAML reaction-role table.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultReactionRoles maps reaction emoji to role names in the welcome channel.
var DefaultReactionRoles = map[string]string{
	"1⃣": "y1",
	"2⃣": "y2",
	"3⃣": "y3",
	"4⃣": "y4",
	"🤖":  "pr",
	"🎨":  "va",
	"💭":  "dp",
	"🎓":  "alumni",
	"👍":  "test",
}

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	GuildID      string `env:"DISCORD_SERVER_ID,required"`

	CommandPrefix  string `env:"COMMAND_PREFIX" envDefault:"!"`
	WelcomeChannel string `env:"WELCOME_CHANNEL" envDefault:"welcome"`
	LogChannel     string `env:"LOG_CHANNEL" envDefault:"logs"`
	DefaultRole    string `env:"DEFAULT_ROLE" envDefault:"student"`

	ReactionRoles     map[string]string `env:"REACTION_ROLES" envSeparator:"," envKeyValSeparator:":"`
	ReactionRolesFile string            `env:"REACTION_ROLES_FILE"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	StoragePath string `env:"STORAGE_PATH" envDefault:"data/sqlite.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile        string        `env:"LOG_FILE"`
	LogChannelRate time.Duration `env:"LOG_CHANNEL_RATE" envDefault:"2s"`

	CooldownSweepInterval time.Duration `env:"COOLDOWN_SWEEP_INTERVAL" envDefault:"1m"`
}

type reactionRolesFile struct {
	ReactionRoles map[string]string `yaml:"reaction_roles"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom parses settings from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	roles := make(map[string]string)
	if cfg.ReactionRolesFile != "" {
		fromFile, err := readReactionRoles(cfg.ReactionRolesFile)
		if err != nil {
			return nil, err
		}
		for emoji, role := range fromFile {
			roles[emoji] = role
		}
	}
	for emoji, role := range cfg.ReactionRoles {
		roles[strings.TrimSpace(emoji)] = strings.TrimSpace(role)
	}
	if len(roles) == 0 {
		for emoji, role := range DefaultReactionRoles {
			roles[emoji] = role
		}
	}
	cfg.ReactionRoles = roles

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readReactionRoles(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reaction roles file: %w", err)
	}
	var f reactionRolesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reaction roles file %s: %w", path, err)
	}
	return f.ReactionRoles, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return errors.New("COMMAND_PREFIX must not be blank")
	}
	switch c.StoreDriver {
	case "sqlite":
		if c.StoragePath == "" {
			return errors.New("STORAGE_PATH is required for the sqlite store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}
