package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicy_Defaults(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if p.TeamMinPrefix != 1 || p.TeamMaxDistance != 0 {
		t.Errorf("team policy = %d/%d, want 1/0", p.TeamMinPrefix, p.TeamMaxDistance)
	}
	if p.HandicapBase != 225 || p.HandicapFactor != 0.9 {
		t.Errorf("handicap = %v/%v, want 225/0.9", p.HandicapBase, p.HandicapFactor)
	}
}

func TestLoadPolicy_FileAndEnv(t *testing.T) {
	path := writePolicy(t, `
team_min_prefix: 3
team_max_distance: 1
handicap_factor: 0.8
aliases:
  id: ["member no", "league id"]
`)
	t.Setenv("POLICY_TEAM_MIN_PREFIX", "4")

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if p.TeamMinPrefix != 4 {
		t.Errorf("TeamMinPrefix = %d, want env override 4", p.TeamMinPrefix)
	}
	if p.TeamMaxDistance != 1 {
		t.Errorf("TeamMaxDistance = %d, want 1", p.TeamMaxDistance)
	}
	if p.HandicapBase != 225 {
		t.Errorf("HandicapBase = %v, want default 225", p.HandicapBase)
	}
	if p.HandicapFactor != 0.8 {
		t.Errorf("HandicapFactor = %v, want 0.8", p.HandicapFactor)
	}
	if strings.Join(p.Aliases["id"], ",") != "member no,league id" {
		t.Errorf("Aliases[id] = %v", p.Aliases["id"])
	}

	c := p.Core()
	if c.Teams.MinPrefix != 4 || c.Teams.MaxDistance != 1 || c.Handicap.Factor != 0.8 {
		t.Errorf("Core() = %+v", c)
	}
	if len(c.Aliases["id"]) != 2 {
		t.Errorf("Core().Aliases = %v", c.Aliases)
	}
}

func TestLoadPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"prefix", "team_min_prefix: 0\n", "team_min_prefix"},
		{"factor", "handicap_factor: 1.5\n", "handicap_factor"},
		{"blank alias", "aliases:\n  lane: [\"\"]\n", "aliases.lane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadPolicy() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadPolicy() expected error for missing file")
	}
}
