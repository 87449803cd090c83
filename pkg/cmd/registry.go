package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateName is returned when a command name or alias is already taken.
var ErrDuplicateName = errors.New("duplicate command name")

// Registry stores commands by name and alias. It does not perform dispatch;
// each adapter looks up commands and invokes them with its own context.
// A registry is assembled once at startup and only read afterwards.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command. Names and aliases are case-insensitive and must be
// unique across the whole registry.
func (r *Registry) Register(c Command) error {
	name := strings.ToLower(c.Name())
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrDuplicateName)
	}
	if r.taken(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	var aliases []string
	if a, ok := Root(c).(Aliased); ok {
		seen := map[string]bool{name: true}
		for _, alias := range a.Aliases() {
			alias = strings.ToLower(alias)
			if seen[alias] || r.taken(alias) {
				return fmt.Errorf("%w: alias %q of %q", ErrDuplicateName, alias, name)
			}
			seen[alias] = true
			aliases = append(aliases, alias)
		}
	}

	r.commands[name] = c
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	return nil
}

// MustRegister registers every command and panics on the first collision.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) taken(key string) bool {
	if _, ok := r.commands[key]; ok {
		return true
	}
	_, ok := r.aliases[key]
	return ok
}

// Get returns the command registered under exactly this name, or nil.
func (r *Registry) Get(name string) Command {
	return r.commands[strings.ToLower(name)]
}

// Lookup returns the command for a name, falling back to aliases.
func (r *Registry) Lookup(key string) Command {
	key = strings.ToLower(key)
	if c, ok := r.commands[key]; ok {
		return c
	}
	if name, ok := r.aliases[key]; ok {
		return r.commands[name]
	}
	return nil
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Len reports the number of registered commands, aliases excluded.
func (r *Registry) Len() int {
	return len(r.commands)
}
