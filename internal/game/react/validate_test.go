package react

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const archerReaction = `
triggers:
  - type: OnDeploy
effects:
  - candidates:
      type: Relative
      proximity: Opposing
      relationship: Enemy
    action:
      type: DealDamage
      value: { type: static, value: 2 }
limit:
  scope: Game
  max: 1
`

func TestDecodeAndValidateReaction(t *testing.T) {
	var cfg ReactionConfig
	require.NoError(t, yaml.Unmarshal([]byte(archerReaction), &cfg))
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Effects, 1)
	assert.Equal(t, TriggerOnDeploy, cfg.Triggers[0].Type)
	assert.True(t, cfg.Triggers[0].Type.IsLifecycle())
	assert.Equal(t, ProximityOpposing, cfg.Effects[0].Candidates.Proximity)
	assert.Equal(t, 2, ToInt(cfg.Effects[0].Action.Value.Value))
}

func TestValidateRejectsUnknownVocabulary(t *testing.T) {
	base := func() ReactionConfig {
		return ReactionConfig{
			Triggers: []TriggerConfig{{Type: TriggerDeploy}},
			Effects: []EffectDefinition{{
				Candidates: &TargetSelector{Type: StrategySelf},
				Action:     ActionConfig{Type: ActionAddPower, Value: Static(1)},
			}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*ReactionConfig)
	}{
		{"no triggers", func(c *ReactionConfig) { c.Triggers = nil }},
		{"bad trigger", func(c *ReactionConfig) { c.Triggers[0].Type = "Explode" }},
		{"no effects", func(c *ReactionConfig) { c.Effects = nil }},
		{"bad action", func(c *ReactionConfig) { c.Effects[0].Action.Type = "Teleport" }},
		{"bad strategy", func(c *ReactionConfig) { c.Effects[0].Candidates.Type = "Everywhere" }},
		{"bad proximity", func(c *ReactionConfig) { c.Effects[0].Candidates.Proximity = "Far" }},
		{"bad selection", func(c *ReactionConfig) {
			c.Effects[0].Selection = &SelectionConfig{Strategy: "Vote"}
		}},
		{"move without slot", func(c *ReactionConfig) { c.Effects[0].Action = ActionConfig{Type: ActionMoveUnit} }},
		{"fight without opponent", func(c *ReactionConfig) { c.Effects[0].Action = ActionConfig{Type: ActionFight} }},
		{"empty sequence", func(c *ReactionConfig) { c.Effects[0].Action = ActionConfig{Type: ActionSequence} }},
		{"bad limit", func(c *ReactionConfig) { c.Limit = &LimitConfig{Scope: "Phase", Max: 1} }},
		{"bad condition", func(c *ReactionConfig) {
			c.Conditions = []Condition{{Path: "power", Operator: "approx", Value: *Static(1)}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
