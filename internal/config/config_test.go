package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseVars() map[string]string {
	return map[string]string{
		"DISCORD_TOKEN":     "token",
		"DISCORD_SERVER_ID": "guild-1",
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(baseVars())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("prefix = %q, want !", cfg.CommandPrefix)
	}
	if cfg.WelcomeChannel != "welcome" || cfg.LogChannel != "logs" || cfg.DefaultRole != "student" {
		t.Errorf("unexpected channel/role defaults: %+v", cfg)
	}
	if cfg.StoreDriver != "sqlite" || cfg.StoragePath != "data/sqlite.db" {
		t.Errorf("unexpected store defaults: %s %s", cfg.StoreDriver, cfg.StoragePath)
	}
	if cfg.CooldownSweepInterval != time.Minute {
		t.Errorf("sweep interval = %v", cfg.CooldownSweepInterval)
	}
	if len(cfg.ReactionRoles) != len(DefaultReactionRoles) {
		t.Errorf("expected default reaction roles, got %v", cfg.ReactionRoles)
	}
	want := map[string]string{
		"1⃣": "y1", "2⃣": "y2", "3⃣": "y3", "4⃣": "y4",
		"🤖": "pr", "🎨": "va", "💭": "dp", "🎓": "alumni", "👍": "test",
	}
	for emoji, role := range want {
		if cfg.ReactionRoles[emoji] != role {
			t.Errorf("reaction role %s = %q, want %q", emoji, cfg.ReactionRoles[emoji], role)
		}
	}
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	if _, err := LoadFrom(map[string]string{"DISCORD_TOKEN": "x"}); err == nil {
		t.Fatal("expected error without DISCORD_SERVER_ID")
	}
}

func TestLoadFrom_ReactionRolesFromEnv(t *testing.T) {
	vars := baseVars()
	vars["REACTION_ROLES"] = "👍:verified,🎓:alumni"
	cfg, err := LoadFrom(vars)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ReactionRoles) != 2 || cfg.ReactionRoles["👍"] != "verified" {
		t.Fatalf("unexpected roles %v", cfg.ReactionRoles)
	}
}

func TestLoadFrom_ReactionRolesFileMergedUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	content := "reaction_roles:\n  \"👍\": member\n  \"🎨\": va\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	vars := baseVars()
	vars["REACTION_ROLES_FILE"] = path
	vars["REACTION_ROLES"] = "👍:verified"
	cfg, err := LoadFrom(vars)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReactionRoles["👍"] != "verified" {
		t.Errorf("env should override file, got %q", cfg.ReactionRoles["👍"])
	}
	if cfg.ReactionRoles["🎨"] != "va" {
		t.Errorf("file entry missing, got %v", cfg.ReactionRoles)
	}
}

func TestLoadFrom_StoreValidation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr bool
	}{
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}, true},
		{"postgres with url", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": "postgres://x"}, false},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}, true},
		{"blank prefix", map[string]string{"COMMAND_PREFIX": " "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := baseVars()
			for k, v := range tt.vars {
				vars[k] = v
			}
			_, err := LoadFrom(vars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryWeight(t *testing.T) {
	if CategoryWeight("Information") >= CategoryWeight("Moderation") {
		t.Error("Information should sort before Moderation")
	}
	if CategoryWeight("unknown") <= CategoryWeight("Cleanup") {
		t.Error("unknown categories sort last")
	}
}
