package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/commands/core"
	"discord-user-manager/internal/commands/moderation"
	"discord-user-manager/internal/config"
	"discord-user-manager/internal/docs"
	"discord-user-manager/internal/logging"
	"discord-user-manager/internal/storage"
	"discord-user-manager/pkg/cmd"
)

var logger zerolog.Logger

func main() {
	logger = logging.New(logging.Options{Level: os.Getenv("LOG_LEVEL")})

	root := &cobra.Command{
		Use:          "dum",
		Short:        "Admin tooling for the Discord user manager",
		SilenceUsage: true,
	}

	root.AddCommand(commandsCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(usersCmd())
	root.AddCommand(readmeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func commandsCmd() *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "commands",
		Short: "List the bot's text commands",
		RunE: func(c *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}

			all := reg.GetAll()
			list := make([]command.Descriptor, 0, len(all))
			for _, cm := range all {
				list = append(list, command.Describe(cm))
			}
			return encode(c.OutOrStdout(), format, list)
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return c
}

func readmeCmd() *cobra.Command {
	var tmplPath, outPath, prefix string

	c := &cobra.Command{
		Use:   "readme",
		Short: "Render README.md from its template and the command registry",
		RunE: func(c *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			tmpl, err := os.ReadFile(tmplPath)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := docs.Render(f, string(tmpl), reg, prefix); err != nil {
				return err
			}
			logger.Info().Str("path", outPath).Int("commands", reg.Len()).Msg("readme updated")
			return nil
		},
	}
	c.Flags().StringVar(&tmplPath, "template", "README.md.tmpl", "template path")
	c.Flags().StringVar(&outPath, "out", "README.md", "output path")
	c.Flags().StringVar(&prefix, "prefix", "!", "command prefix shown in the reference")
	return c
}

func historyCmd() *cobra.Command {
	var guildID string

	c := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent commands run in the guild",
		RunE: func(c *cobra.Command, args []string) error {
			return withStore(c.Context(), func(cfg *config.Config, store storage.Store) error {
				if guildID == "" {
					guildID = cfg.GuildID
				}
				hist, err := store.CommandHistory(c.Context(), guildID)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tCHANNEL\tUSER\tCOMMAND\tARGS")
				for _, h := range hist {
					fmt.Fprintf(w, "%s\t#%s\t%s\t%s\t%s\n",
						h.Datetime.Format("2006-01-02 15:04:05"), h.ChannelName, h.Username, h.Command, h.Args)
				}
				return w.Flush()
			})
		},
	}
	c.Flags().StringVar(&guildID, "guild", "", "guild id (default: DISCORD_SERVER_ID)")
	return c
}

func usersCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "users",
		Short: "Inspect local accounts",
	}

	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List local accounts and their Discord links",
		RunE: func(c *cobra.Command, args []string) error {
			return withStore(c.Context(), func(_ *config.Config, store storage.Store) error {
				users, err := store.ListUsers(c.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDISCORD")
				for _, u := range users {
					discord := "-"
					if u.Linked() {
						discord = fmt.Sprintf("%s (%s)", u.DiscordUsername, u.DiscordID)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, discord)
				}
				return w.Flush()
			})
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "unlink <id>",
		Short: "Clear the Discord link of a local account",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			return withStore(c.Context(), func(_ *config.Config, store storage.Store) error {
				if err := store.ClearDiscord(c.Context(), id); err != nil {
					return err
				}
				logger.Info().Int64("account", id).Msg("discord link cleared")
				return nil
			})
		},
	})
	return c
}

// registry assembles the text commands without dispatch middleware.
func registry() (*cmd.Registry, error) {
	reg := cmd.NewRegistry()
	if err := core.Register(reg); err != nil {
		return nil, err
	}
	if err := moderation.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func withStore(ctx context.Context, fn func(*config.Config, storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StoreDriver,
		Path:        cfg.StoragePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
