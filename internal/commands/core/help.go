package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"discord-user-manager/internal/command"
	"discord-user-manager/internal/config"
	"discord-user-manager/internal/gateway"
	"discord-user-manager/internal/resolve"
	"discord-user-manager/pkg/cmd"
)

const maxMessageLength = 2000

type HelpCommand struct{}

func (c *HelpCommand) Name() string            { return "help" }
func (c *HelpCommand) Description() string     { return "List all of the commands or info about a specific command." }
func (c *HelpCommand) Aliases() []string       { return []string{"h", "commands"} }
func (c *HelpCommand) Usage() string           { return "[command name]" }
func (c *HelpCommand) Category() string        { return "Information" }
func (c *HelpCommand) Cooldown() time.Duration { return 5 * time.Second }

func (c *HelpCommand) Run(ctx context.Context, mc *command.MessageContext) error {
	if len(mc.Args) == 0 {
		return c.sendList(mc)
	}

	name := strings.ToLower(mc.Args[0])
	found := mc.Registry.Lookup(name)
	if found == nil {
		return mc.Reply(fmt.Sprintf("`%s` is not one of the recognized commands.", name))
	}

	for _, chunk := range splitMessage(describe(command.Describe(found), mc.Prefix)) {
		if err := mc.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *HelpCommand) sendList(mc *command.MessageContext) error {
	var b strings.Builder
	b.WriteString("This is a list of the commands:\n")
	b.WriteString(listCommands(mc.Registry))
	fmt.Fprintf(&b, "\n\nYou can use `%shelp [command name]` to get info on a specific command.", mc.Prefix)

	for _, chunk := range splitMessage(b.String()) {
		if err := gateway.DirectMessage(mc.Session, mc.Author().ID, chunk); err != nil {
			mc.Log.Debug().Err(err).Str("user", mc.Author().String()).Msg("could not send help DM")
			return mc.Reply("I tried to DM you with the commands, but something went wrong. Did you disable DM's?")
		}
	}
	if !mc.InGuild() {
		return nil
	}
	return mc.Reply("I've sent you a DM with all of the commands.")
}

// listCommands renders registered commands grouped by category.
func listCommands(reg *cmd.Registry) string {
	byCategory := make(map[string][]string)
	for _, c := range reg.GetAll() {
		d := command.Describe(c)
		byCategory[d.Category] = append(byCategory[d.Category], "`"+d.Name+"`")
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		wi, wj := config.CategoryWeight(categories[i]), config.CategoryWeight(categories[j])
		if wi != wj {
			return wi < wj
		}
		return categories[i] < categories[j]
	})

	lines := make([]string, 0, len(categories))
	for _, cat := range categories {
		names := strings.Join(byCategory[cat], ", ")
		if cat == "" {
			lines = append(lines, names)
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s:** %s", cat, names))
	}
	return strings.Join(lines, "\n")
}

func describe(d command.Descriptor, prefix string) string {
	lines := []string{fmt.Sprintf("**Name:** `%s`", d.Name)}
	if len(d.Aliases) > 0 {
		lines = append(lines, fmt.Sprintf("**Aliases:** `%s`", strings.Join(d.Aliases, ", ")))
	}
	if d.Description != "" {
		lines = append(lines, "**Description:** "+d.Description)
	}
	if d.Permissions != 0 {
		names := resolve.PermissionNames(d.Permissions)
		lines = append(lines, fmt.Sprintf("**Required Permissions:** `%s`", strings.Join(names, "`, `")))
	}
	if d.Usage != "" {
		lines = append(lines, fmt.Sprintf("**Usage:** `%s%s %s`", prefix, d.Name, d.Usage))
	}
	if d.Cooldown > 0 {
		secs := d.Cooldown.Seconds()
		unit := "seconds"
		if secs == 1 {
			unit = "second"
		}
		lines = append(lines, fmt.Sprintf("**Cooldown:** %g %s.", secs, unit))
	}
	if d.GuildOnly {
		lines = append(lines, "> This command may only be used within a guild server.")
	}
	return strings.Join(lines, "\n")
}

// splitMessage breaks text on line boundaries into Discord-sized chunks.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLength {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxMessageLength {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			cut := maxMessageLength
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(line) > maxMessageLength {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
