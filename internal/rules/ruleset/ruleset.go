// Package ruleset loads and validates the rules configuration files
// (specialization-resources.json and trauma-economy.json) into the
// typed tables the engine runs on. Defaults are compiled in; a config
// directory overrides them file by file.
package ruleset

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
)

//go:embed defaults/*.json
var defaultsFS embed.FS

const (
	resourcesFile = "specialization-resources.json"
	traumaFile    = "trauma-economy.json"
)

// ResourceRules is the validated rule bundle for one resource type.
type ResourceRules struct {
	Table     *resource.Table
	Sources   resource.SourceSet
	RageDecay resource.RageDecayConfig

	DecayOnMiss     int
	DecayOnStun     int
	DecayOnIdleTurn int

	// CascadeEffects maps tier names to their configured effect sets.
	CascadeEffects map[string][]resource.CascadeEffect
}

// Ruleset is the full validated rules configuration.
type Ruleset struct {
	Resources map[resource.Type]ResourceRules
	Trauma    trauma.Config
	Stages    *corruption.StageLadder
	Fumbles   *fumble.Table

	// Warnings collects non-fatal config findings (overlapping tiers,
	// malformed formulas replaced by zero, threshold ordering smells).
	// Callers log them at load time.
	Warnings []string
}

// CascadeEffectsFor returns the configured effect set for the tier, if
// any.
func (r *Ruleset) CascadeEffectsFor(resourceType resource.Type, tierName string) []resource.CascadeEffect {
	rules, ok := r.Resources[resourceType]
	if !ok {
		return nil
	}
	return rules.CascadeEffects[tierName]
}

// LoadDefault builds the ruleset from the embedded default documents.
func LoadDefault() (*Ruleset, error) {
	return Load("")
}

// Load reads the rules files from dir, falling back to the embedded
// defaults for any file dir does not provide. An empty dir loads the
// defaults only. Structural problems (gaps, bad ranges, bad variable
// sources) are fatal; recoverable findings are collected as warnings.
func Load(dir string) (*Ruleset, error) {
	resourcesRaw, err := readRulesFile(dir, resourcesFile)
	if err != nil {
		return nil, err
	}
	traumaRaw, err := readRulesFile(dir, traumaFile)
	if err != nil {
		return nil, err
	}

	var specDoc specializationDoc
	if err := json.Unmarshal(resourcesRaw, &specDoc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", resourcesFile, err)
	}
	var econDoc traumaDoc
	if err := json.Unmarshal(traumaRaw, &econDoc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", traumaFile, err)
	}

	rs := &Ruleset{Resources: make(map[resource.Type]ResourceRules, 3)}

	for _, entry := range []struct {
		resourceType resource.Type
		doc          resourceDoc
	}{
		{resource.Rage, specDoc.Rage},
		{resource.Momentum, specDoc.Momentum},
		{resource.Coherence, specDoc.Coherence},
	} {
		resourceType := entry.resourceType
		rules, warnings, err := buildResourceRules(resourceType, entry.doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", resourcesFile, resourceType, err)
		}
		rs.Resources[resourceType] = rules
		rs.Warnings = append(rs.Warnings, warnings...)
	}

	traumaCfg, warnings, err := buildTraumaConfig(econDoc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", traumaFile, err)
	}
	rs.Trauma = traumaCfg
	rs.Warnings = append(rs.Warnings, warnings...)

	stages := corruption.DefaultStages()
	if len(econDoc.Corruption.Stages) > 0 {
		stages = make([]corruption.Stage, 0, len(econDoc.Corruption.Stages))
		for _, stage := range econDoc.Corruption.Stages {
			stages = append(stages, corruption.Stage{Name: stage.Name, Min: stage.MinValue, Max: stage.MaxValue})
		}
	}
	ladder, err := corruption.NewStageLadder(stages)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", traumaFile, err)
	}
	rs.Stages = ladder

	rs.Fumbles = buildFumbleTable(econDoc.Fumbles)

	return rs, nil
}

func readRulesFile(dir, name string) ([]byte, error) {
	if dir != "" {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return raw, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
	}
	raw, err := defaultsFS.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s: %w", name, err)
	}
	return raw, nil
}

func buildResourceRules(resourceType resource.Type, doc resourceDoc) (ResourceRules, []string, error) {
	var warnings []string

	tiers := make([]resource.Tier, 0, len(doc.Thresholds))
	cascades := make(map[string][]resource.CascadeEffect)
	for _, tierDoc := range doc.Thresholds {
		tiers = append(tiers, resource.Tier{
			Name:                   tierDoc.Name,
			Min:                    tierDoc.MinValue,
			Max:                    tierDoc.MaxValue,
			DamageBonus:            tierDoc.DamageBonus,
			AttackBonus:            tierDoc.AttackBonus,
			DefensePenalty:         tierDoc.DefensePenalty,
			CriticalChance:         tierDoc.CriticalChance,
			SoakBonus:              tierDoc.SoakBonus,
			BonusAttacks:           tierDoc.BonusAttacks,
			MovementBonusPerTwenty: tierDoc.MovementBonusPerTwenty,
			PartyStressReduction:   tierDoc.PartyStressReduction,
			MustAttackNearest:      tierDoc.MustAttackNearest,
			FearImmune:             tierDoc.FearImmune,
			UltimateEnabled:        tierDoc.UltimateEnabled,
			HealOnKill:             tierDoc.HealOnKill,
			CascadeRisk:            tierDoc.CascadeRisk,
		})
		if len(tierDoc.CascadeEffects) > 0 {
			effects := make([]resource.CascadeEffect, 0, len(tierDoc.CascadeEffects))
			for _, effectDoc := range tierDoc.CascadeEffects {
				kind, err := parseCascadeKind(effectDoc.Effect)
				if err != nil {
					return ResourceRules{}, nil, err
				}
				effects = append(effects, resource.CascadeEffect{
					Kind:           kind,
					Weight:         effectDoc.Weight,
					CoherenceLoss:  effectDoc.CoherenceLoss,
					SelfDamage:     effectDoc.SelfDamage,
					StressGain:     effectDoc.StressGain,
					CorruptionGain: effectDoc.CorruptionGain,
					DisruptSpell:   effectDoc.DisruptSpell,
				})
			}
			cascades[tierDoc.Name] = effects
		}
	}

	table, tableWarnings, err := resource.NewTable(resourceType, doc.MinValue, doc.MaxValue, doc.StartingValue, tiers)
	if err != nil {
		return ResourceRules{}, nil, err
	}
	warnings = append(warnings, tableWarnings...)

	sources := make(resource.SourceSet, len(doc.Sources))
	for event, srcDoc := range doc.Sources {
		src, warning, err := buildSource(resourceType, event, srcDoc)
		if err != nil {
			return ResourceRules{}, nil, err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
		sources[event] = src
	}

	return ResourceRules{
		Table:   table,
		Sources: sources,
		RageDecay: resource.RageDecayConfig{
			DecayPerTurn:                doc.DecayPerTurn,
			DecayMinutesBeforeNonCombat: doc.DecayMinutesBeforeNonCombat,
		},
		DecayOnMiss:     doc.DecayOnMiss,
		DecayOnStun:     doc.DecayOnStun,
		DecayOnIdleTurn: doc.DecayOnIdleTurn,
		CascadeEffects:  cascades,
	}, warnings, nil
}

func buildSource(resourceType resource.Type, event string, doc sourceDoc) (resource.Source, string, error) {
	switch {
	case doc.Flat != nil:
		return resource.Source{Event: event, Kind: resource.SourceFlat, Flat: *doc.Flat}, "", nil
	case doc.Formula != "":
		formula, err := resource.ParseFormula(doc.Formula)
		if err != nil {
			// Malformed formulas fail closed: the source contributes
			// zero and the finding surfaces as a load warning.
			return resource.Source{Event: event, Kind: resource.SourceFormula},
				fmt.Sprintf("%s: source %q formula %q is malformed; it will contribute zero", resourceType, event, doc.Formula),
				nil
		}
		return resource.Source{Event: event, Kind: resource.SourceFormula, Formula: formula}, "", nil
	case doc.Min != nil && doc.Max != nil:
		if err := resource.ValidateVariable(event, *doc.Min, *doc.Max); err != nil {
			return resource.Source{}, "", err
		}
		return resource.Source{Event: event, Kind: resource.SourceVariable, Min: *doc.Min, Max: *doc.Max}, "", nil
	default:
		return resource.Source{Event: event, Kind: resource.SourceFlat},
			fmt.Sprintf("%s: source %q has no generation rule; it will contribute zero", resourceType, event),
			nil
	}
}

func parseCascadeKind(name string) (resource.CascadeEffectKind, error) {
	switch name {
	case "selfDamage":
		return resource.CascadeSelfDamage, nil
	case "stress":
		return resource.CascadeStress, nil
	case "corruption":
		return resource.CascadeCorruption, nil
	case "spellDisruption":
		return resource.CascadeSpellDisruption, nil
	default:
		return 0, fmt.Errorf("unknown cascade effect %q", name)
	}
}

func buildTraumaConfig(doc traumaDoc) (trauma.Config, []string, error) {
	var warnings []string

	formula, err := resource.ParseFormula(doc.DamageToStress.Formula)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf(
			"damage-to-stress formula %q is malformed; it will contribute zero", doc.DamageToStress.Formula))
		formula = resource.Formula{}
	}

	thresholds := doc.Thresholds
	for _, bound := range []struct {
		name  string
		value int
	}{
		{"criticalWarningThreshold", thresholds.CriticalWarningThreshold},
		{"terminalTriggerThreshold", thresholds.TerminalTriggerThreshold},
	} {
		if bound.value < 0 || bound.value > 100 {
			return trauma.Config{}, nil, fmt.Errorf("%s = %d is outside 0..100", bound.name, bound.value)
		}
	}
	if thresholds.CriticalWarningThreshold >= thresholds.TerminalTriggerThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"criticalWarningThreshold (%d) >= terminalTriggerThreshold (%d); warnings will not precede the terminal effect",
			thresholds.CriticalWarningThreshold, thresholds.TerminalTriggerThreshold))
	}

	nearDeathPercent := doc.DamageToStress.NearDeathHPPercent
	if nearDeathPercent <= 0 {
		nearDeathPercent = 25
	}

	return trauma.Config{
		DamageFormula:          formula,
		CriticalHitStressBonus: doc.DamageToStress.CriticalHitStressBonus,
		NearDeathStressBonus:   doc.DamageToStress.NearDeathStressBonus,
		AllyDeathStressBonus:   doc.DamageToStress.AllyDeathStressBonus,
		NearDeathHPPercent:     nearDeathPercent,

		ShortRestRageReset:      doc.RestRecovery.ShortRestRageReset,
		ShortRestMomentumReset:  doc.RestRecovery.ShortRestMomentumReset,
		LongRestCoherenceValue:  doc.RestRecovery.LongRestCoherenceValue,
		SanctuaryCoherenceValue: doc.RestRecovery.SanctuaryCoherenceValue,

		ApotheosisStressCost:   doc.TurnEffects.ApotheosisStressCost,
		MaxEnvironmentalStress: doc.TurnEffects.MaxEnvironmentalStress,

		CriticalWarningThreshold: thresholds.CriticalWarningThreshold,
		TerminalTriggerThreshold: thresholds.TerminalTriggerThreshold,
		WarningMessage:           thresholds.WarningMessage,
		TerminalMessage:          thresholds.TerminalMessage,
	}, warnings, nil
}

func buildFumbleTable(doc fumblesDoc) *fumble.Table {
	if len(doc.Consequences) == 0 {
		return fumble.DefaultTable()
	}

	entries := make(map[fumble.Type]fumble.Blueprint, len(doc.Consequences))
	for name, entry := range doc.Consequences {
		entries[fumble.Type(name)] = blueprintFromDoc(entry)
	}
	return fumble.NewTable(entries, blueprintFromDoc(doc.Generic))
}

func blueprintFromDoc(doc fumbleDoc) fumble.Blueprint {
	blueprint := fumble.Blueprint{
		Description:       doc.Description,
		RecoveryCondition: doc.RecoveryCondition,
	}
	if doc.DurationSeconds != nil {
		d := time.Duration(*doc.DurationSeconds) * time.Second
		blueprint.Duration = &d
	}
	return blueprint
}
