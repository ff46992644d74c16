// Package simulate runs a scripted encounter across the three
// specialization archetypes. It doubles as a ruleset validator and a
// smoke harness for the full engine pipeline.
package simulate

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/runerust/internal/engine"
	"github.com/louisbranch/runerust/internal/platform/config"
	"github.com/louisbranch/runerust/internal/platform/random"
	"github.com/louisbranch/runerust/internal/rules/check"
	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/ruleset"
	"github.com/louisbranch/runerust/internal/rules/trauma"
	"github.com/louisbranch/runerust/internal/storage"
	"github.com/louisbranch/runerust/internal/storage/memory"
	"github.com/louisbranch/runerust/internal/storage/sqlite"
)

// Config holds simulate command configuration.
type Config struct {
	RulesDir string `env:"RUNERUST_RULES_DIR"`
	DBPath   string `env:"RUNERUST_DB_PATH"`
	Seed     int64  `env:"RUNERUST_SEED"`
	Turns    int    `env:"RUNERUST_TURNS"    envDefault:"10"`
	Validate bool   `env:"RUNERUST_VALIDATE"`
	Verbose  bool   `env:"RUNERUST_VERBOSE"`
}

// ParseConfig parses flags over env defaults into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.RulesDir, "rules", cfg.RulesDir, "directory with ruleset JSON files (empty for embedded defaults)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path (empty for in-memory stores)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "rng seed for reproducible encounters (0 for random)")
	fs.IntVar(&cfg.Turns, "turns", cfg.Turns, "combat turns to simulate")
	fs.BoolVar(&cfg.Validate, "validate", cfg.Validate, "validate the ruleset and exit")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "print every meter transition")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// writerSink prints domain events as they happen.
type writerSink struct {
	w io.Writer
}

func (s writerSink) Emit(_ context.Context, evt engine.Event) error {
	fmt.Fprintf(s.w, "  ! %s [%s] %s\n", evt.Kind, evt.CharacterID, evt.Message)
	return nil
}

// Run executes the simulate command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	rules, err := ruleset.Load(cfg.RulesDir)
	if err != nil {
		return fmt.Errorf("load ruleset: %w", err)
	}
	for _, warning := range rules.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", warning)
	}
	if cfg.Validate {
		fmt.Fprintln(out, "ruleset OK")
		return nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed, err = random.NewSeed()
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "seed %d\n", seed)

	stores, cleanup, err := openStores(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := engine.New(engine.Config{
		Rules:   rules,
		Stores:  stores,
		RNG:     random.Seeded(seed),
		Emitter: engine.NewEmitter(writerSink{w: out}),
	})
	if err != nil {
		return err
	}

	return runEncounter(ctx, eng, cfg, out)
}

func openStores(ctx context.Context, dbPath string) (storage.Stores, func(), error) {
	if dbPath == "" {
		return memory.NewStores(), func() {}, nil
	}
	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return storage.Stores{}, nil, fmt.Errorf("open sqlite: %w", err)
	}
	return store.Stores(), func() { _ = store.Close() }, nil
}

// The three archetypes exercise one resource economy each.
const (
	berserker  = "brakka"
	stormBlade = "sorin"
	arcanist   = "velka"
)

func runEncounter(ctx context.Context, eng *engine.Engine, cfg Config, out io.Writer) error {
	for _, characterID := range []string{berserker, stormBlade, arcanist} {
		if _, err := eng.EnsureCharacter(ctx, characterID); err != nil {
			return err
		}
	}

	for turn := 1; turn <= cfg.Turns; turn++ {
		fmt.Fprintf(out, "turn %d\n", turn)
		if err := berserkerTurn(ctx, eng, cfg, out, turn); err != nil {
			return err
		}
		if err := stormBladeTurn(ctx, eng, cfg, out, turn); err != nil {
			return err
		}
		if err := arcanistTurn(ctx, eng, cfg, out, turn); err != nil {
			return err
		}
	}

	if err := socialEpilogue(ctx, eng, out); err != nil {
		return err
	}
	return restAndReport(ctx, eng, out)
}

// berserkerTurn trades blood for rage: take a hit, swing back.
func berserkerTurn(ctx context.Context, eng *engine.Engine, cfg Config, out io.Writer, turn int) error {
	damage, err := eng.ApplyDamageEvent(ctx, engine.DamageInput{
		CharacterID: berserker,
		Event: trauma.DamageEvent{
			Damage:   10 + turn,
			Critical: turn%5 == 0,
			HPBefore: 100 - 8*turn,
			HPMax:    100,
		},
	})
	if err != nil {
		return err
	}
	logChange(out, cfg, berserker, damage.Rage)

	dealt, err := eng.ApplyResourceEvent(ctx, berserker, resource.Rage, "dealingDamage",
		map[string]int{"damage": 20 + damage.Rage.After/2})
	if err != nil {
		return err
	}
	logChange(out, cfg, berserker, dealt)

	turnResult, err := eng.ApplyTurnEffects(ctx, engine.TurnInput{
		CharacterID: berserker, InCombat: true, AttackedThisTurn: true,
	})
	if err != nil {
		return err
	}
	logChange(out, cfg, berserker, turnResult.Rage)
	return nil
}

// stormBladeTurn rides the hit chain and breaks it on a scripted miss.
func stormBladeTurn(ctx context.Context, eng *engine.Engine, cfg Config, out io.Writer, turn int) error {
	if turn%4 == 0 {
		missed, err := eng.RecordMiss(ctx, stormBlade)
		if err != nil {
			return err
		}
		logChange(out, cfg, stormBlade, missed)
	} else {
		event := "successfulAttack"
		if turn%3 == 0 {
			event = "chainAttack"
		}
		hit, err := eng.ApplyResourceEvent(ctx, stormBlade, resource.Momentum, event, nil)
		if err != nil {
			return err
		}
		logChange(out, cfg, stormBlade, hit)
	}

	turnResult, err := eng.ApplyTurnEffects(ctx, engine.TurnInput{
		CharacterID: stormBlade, InCombat: true, AttackedThisTurn: turn%4 != 0,
	})
	if err != nil {
		return err
	}
	logChange(out, cfg, stormBlade, turnResult.Momentum)
	return nil
}

// arcanistTurn casts every turn and lets low coherence cascade.
func arcanistTurn(ctx context.Context, eng *engine.Engine, cfg Config, out io.Writer, turn int) error {
	cast, err := eng.CastSpell(ctx, arcanist)
	if err != nil {
		return err
	}
	logChange(out, cfg, arcanist, cast.Coherence)
	if cast.Disrupted {
		fmt.Fprintf(out, "  %s: spell disrupted (self damage %d)\n", arcanist, cast.SelfDamage)
	}

	if turn%3 == 0 {
		interrupted, err := eng.ApplyDamageEvent(ctx, engine.DamageInput{
			CharacterID: arcanist,
			Event:       trauma.DamageEvent{Damage: 12, HPBefore: 70, HPMax: 80},
			Interrupted: true,
		})
		if err != nil {
			return err
		}
		logChange(out, cfg, arcanist, interrupted.Coherence)
	}

	turnResult, err := eng.ApplyTurnEffects(ctx, engine.TurnInput{
		CharacterID: arcanist, InCombat: true, AttackedThisTurn: true,
	})
	if err != nil {
		return err
	}
	logChange(out, cfg, arcanist, turnResult.Coherence)
	return nil
}

// socialEpilogue walks one chained check and fumbles its last step.
func socialEpilogue(ctx context.Context, eng *engine.Engine, out io.Writer) error {
	state, err := eng.StartCheck(ctx, stormBlade, "parley", []check.Step{
		{Name: "approach the warlord", Skill: "persuasion", Difficulty: 12, RetriesAllowed: 1},
		{Name: "argue for terms", Skill: "persuasion", Difficulty: 15},
	})
	if err != nil {
		return err
	}

	if state, err = eng.RecordCheckResult(ctx, state.CheckID, true); err != nil {
		return err
	}
	if state, err = eng.RecordCheckResult(ctx, state.CheckID, false); err != nil {
		return err
	}
	fmt.Fprintf(out, "parley ended %s at step %d\n", state.Status, state.CurrentStep+1)

	if state.Status == check.Failed {
		consequence, err := eng.ApplyFumble(ctx, stormBlade, "warlord", "persuasion", fumble.TrustShattered)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "fumble: %s\n", consequence.Description)
	}
	return nil
}

func restAndReport(ctx context.Context, eng *engine.Engine, out io.Writer) error {
	fmt.Fprintln(out, "short rest")
	for _, characterID := range []string{berserker, stormBlade, arcanist} {
		rest, err := eng.ApplyRestRecovery(ctx, characterID, trauma.ShortRest)
		if err != nil {
			return err
		}
		status, err := eng.GetCorruptionStatus(ctx, characterID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: rage %d momentum %d coherence %d corruption %d (%s)\n",
			characterID, rest.Rage.After, rest.Momentum.After, rest.Coherence.After,
			status.Tracker.Current, status.Stage.Name)
	}
	return nil
}

func logChange(out io.Writer, cfg Config, characterID string, change engine.MeterChange) {
	if !cfg.Verbose || change.Before == change.After {
		return
	}
	fmt.Fprintf(out, "  %s: %s %d -> %d\n", characterID, change.Type, change.Before, change.After)
}
