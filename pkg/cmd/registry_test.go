package cmd

import (
	"context"
	"errors"
	"testing"
)

type stubCommand struct {
	name    string
	aliases []string
}

func (s *stubCommand) Name() string { return s.name }
func (s *stubCommand) Description() string { return "stub" }
func (s *stubCommand) Aliases() []string { return s.aliases }
func (s *stubCommand) Run(_ context.Context, _ *Invocation) error { return nil }

func TestRegistry_LookupByNameAndAlias(t *testing.T) {
	r := NewRegistry()
	help := &stubCommand{name: "help", aliases: []string{"h", "commands"}}
	if err := r.Register(help); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, key := range []string{"help", "HELP", "h", "commands"} {
		if got := r.Lookup(key); got != help {
			t.Errorf("Lookup(%q) = %v, want help", key, got)
		}
	}
	if r.Get("h") != nil {
		t.Error("Get must not resolve aliases")
	}
	if r.Lookup("nope") != nil {
		t.Error("unknown key should resolve to nil")
	}
}

func TestRegistry_RejectsCollisions(t *testing.T) {
	tests := []struct {
		name   string
		second *stubCommand
	}{
		{"same name", &stubCommand{name: "ping"}},
		{"name equals alias", &stubCommand{name: "p"}},
		{"alias equals name", &stubCommand{name: "pong", aliases: []string{"ping"}}},
		{"alias equals alias", &stubCommand{name: "pong", aliases: []string{"p"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.Register(&stubCommand{name: "ping", aliases: []string{"p"}}); err != nil {
				t.Fatal(err)
			}
			err := r.Register(tt.second)
			if !errors.Is(err, ErrDuplicateName) {
				t.Fatalf("expected ErrDuplicateName, got %v", err)
			}
			if r.Len() != 1 {
				t.Errorf("failed registration must not change the registry, len=%d", r.Len())
			}
		})
	}
}

func TestRegistry_AliasesVisibleThroughWrappers(t *testing.T) {
	r := NewRegistry()
	inner := &stubCommand{name: "kick", aliases: []string{"k"}}
	wrapped := Wrap(inner, func(ctx context.Context, inv *Invocation) error { return nil })
	if err := r.Register(wrapped); err != nil {
		t.Fatal(err)
	}
	if r.Lookup("k") != wrapped {
		t.Fatal("alias of a wrapped command should resolve to the wrapper")
	}
	if Root(wrapped) != inner {
		t.Fatal("Root should unwrap to the inner command")
	}
}

func TestApply_FirstMiddlewareIsOutermost(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}

	c := Apply(&stubCommand{name: "x"}, mw("a"), mw("b"), mw("c"))
	if err := c.Run(context.Background(), &Invocation{}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestGetAll_SortedByName(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubCommand{name: "prune"}, &stubCommand{name: "help"}, &stubCommand{name: "kick"})
	all := r.GetAll()
	want := []string{"help", "kick", "prune"}
	for i, c := range all {
		if c.Name() != want[i] {
			t.Fatalf("GetAll()[%d] = %s, want %s", i, c.Name(), want[i])
		}
	}
}
