package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/JonMunkholm/lanes/internal/core"
)

// ImportPolicy is the tunable part of reconciliation.
//
//	team_min_prefix: 3
//	team_max_distance: 1
//	handicap_base: 225
//	handicap_factor: 0.9
//	aliases:
//	  id: ["member no"]
//	  lane: ["pair"]
type ImportPolicy struct {
	TeamMinPrefix   int                 `koanf:"team_min_prefix"`
	TeamMaxDistance int                 `koanf:"team_max_distance"`
	HandicapBase    float64             `koanf:"handicap_base"`
	HandicapFactor  float64             `koanf:"handicap_factor"`
	Aliases         map[string][]string `koanf:"aliases"`
}

// DefaultPolicy mirrors core.DefaultPolicy.
func DefaultPolicy() ImportPolicy {
	d := core.DefaultPolicy()
	return ImportPolicy{
		TeamMinPrefix:   d.Teams.MinPrefix,
		TeamMaxDistance: d.Teams.MaxDistance,
		HandicapBase:    d.Handicap.Base,
		HandicapFactor:  d.Handicap.Factor,
	}
}

// LoadPolicy layers defaults, the YAML file at path (when path is set) and
// POLICY_* environment variables, in that order of precedence.
func LoadPolicy(path string) (ImportPolicy, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return ImportPolicy{}, fmt.Errorf("load policy file %s: %w", path, err)
		}
	}

	// POLICY_TEAM_MIN_PREFIX -> team_min_prefix
	envProvider := env.Provider("POLICY_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "POLICY_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return ImportPolicy{}, fmt.Errorf("load policy env: %w", err)
	}

	p := DefaultPolicy()
	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return ImportPolicy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return ImportPolicy{}, err
	}
	return p, nil
}

// Validate rejects settings the engine cannot use.
func (p ImportPolicy) Validate() error {
	var errs []string
	if p.TeamMinPrefix < 1 {
		errs = append(errs, "team_min_prefix must be at least 1")
	}
	if p.TeamMaxDistance < 0 {
		errs = append(errs, "team_max_distance must be non-negative")
	}
	if p.HandicapBase <= 0 {
		errs = append(errs, "handicap_base must be positive")
	}
	if p.HandicapFactor <= 0 || p.HandicapFactor > 1 {
		errs = append(errs, "handicap_factor must be in (0, 1]")
	}
	for col, aliases := range p.Aliases {
		for _, a := range aliases {
			if strings.TrimSpace(a) == "" {
				errs = append(errs, fmt.Sprintf("aliases.%s contains a blank spelling", col))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid import policy: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Core converts the policy for core.NewEngine.
func (p ImportPolicy) Core() core.Policy {
	return core.Policy{
		Teams: core.TeamMatchPolicy{
			MinPrefix:   p.TeamMinPrefix,
			MaxDistance: p.TeamMaxDistance,
		},
		Handicap: core.HandicapFormula{
			Base:   p.HandicapBase,
			Factor: p.HandicapFactor,
		},
		Aliases: p.Aliases,
	}
}
