package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"discord-user-manager/pkg/cmd"
)

type richCommand struct{}

func (richCommand) Name() string                               { return "kick" }
func (richCommand) Description() string                        { return "kick someone" }
func (richCommand) Aliases() []string                          { return []string{"k"} }
func (richCommand) Usage() string                              { return "<user>" }
func (richCommand) RequiresArgs() bool                         { return true }
func (richCommand) Cooldown() time.Duration                    { return time.Second }
func (richCommand) GuildOnly() bool                            { return true }
func (richCommand) Permissions() int64                         { return 2 }
func (richCommand) Category() string                           { return "Moderation" }
func (richCommand) Run(context.Context, *MessageContext) error { return nil }

func TestRegisterCommand_IndexesAliasesThroughAdapter(t *testing.T) {
	reg := cmd.NewRegistry()
	passthrough := func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, c.Run)
	}
	if err := RegisterCommand(reg, richCommand{}, passthrough); err != nil {
		t.Fatalf("RegisterCommand: %v", err)
	}
	if reg.Lookup("k") == nil {
		t.Fatal("alias k not indexed")
	}
}

func TestDescribe(t *testing.T) {
	reg := cmd.NewRegistry()
	if err := RegisterCommand(reg, richCommand{}); err != nil {
		t.Fatal(err)
	}
	d := Describe(reg.Get("kick"))
	if d.Usage != "<user>" || !d.RequiresArgs || !d.GuildOnly || d.Cooldown != time.Second || d.Permissions != 2 || d.Category != "Moderation" {
		t.Errorf("unexpected descriptor: %+v", d)
	}
	if len(d.Aliases) != 1 || d.Aliases[0] != "k" {
		t.Errorf("aliases = %v", d.Aliases)
	}
}

func TestDiscordAdapter_RejectsForeignData(t *testing.T) {
	a := &DiscordAdapter{Cmd: richCommand{}}
	if err := a.Run(context.Background(), &cmd.Invocation{Data: "nope"}); err == nil {
		t.Fatal("expected error for non-message invocation")
	}
}

type addOnly struct{ name string }

func (a addOnly) Name() string        { return a.name }
func (a addOnly) Description() string { return "" }
func (a addOnly) OnReactionAdd(context.Context, *ReactionContext) error {
	return nil
}

type inert struct{}

func (inert) Name() string        { return "inert" }
func (inert) Description() string { return "" }

func TestReactionRegistry(t *testing.T) {
	r := NewReactionRegistry()
	if err := r.Register(addOnly{name: "add_role"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(addOnly{name: "ADD_ROLE"}); !errors.Is(err, ErrDuplicateReaction) {
		t.Errorf("duplicate: got %v", err)
	}
	if err := r.Register(inert{}); err == nil {
		t.Error("handler without callbacks should be rejected")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}
