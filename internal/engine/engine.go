// Package engine is the stateful facade over the rules kernels and the
// character repositories. Rules packages stay pure; every read-modify-
// write cycle, history append, and event emission happens here.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/runerust/internal/platform/id"
	"github.com/louisbranch/runerust/internal/platform/random"
	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/ruleset"
	"github.com/louisbranch/runerust/internal/storage"
)

// Hit-side specialization effects, per the unified damage pipeline.
const (
	momentumLossWhenCriticallyHit = 20
	coherenceLossWhenInterrupted  = 15
	rageSoakDivisor               = 10
)

// Resource event names consumed by built-in operations. The full
// event catalogue is whatever the ruleset sources define; these are
// the ones the engine raises itself.
const (
	sourceTakingDamage = "takingDamage"
	sourceMeditation   = "meditation"
)

// Config assembles an Engine.
type Config struct {
	Rules  *ruleset.Ruleset
	Stores storage.Stores
	// RNG drives cascade rolls and variable resource sources. Inject a
	// seeded source for reproducible encounters.
	RNG random.Source
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Emitter may be nil; emission is then a no-op.
	Emitter *Emitter
}

// Engine coordinates rules resolution against persisted character
// state. Methods are safe for concurrent use across characters; two
// concurrent writers to the same character are last-write-wins.
type Engine struct {
	rules   *ruleset.Ruleset
	stores  storage.Stores
	rng     random.Source
	clock   func() time.Time
	emitter *Emitter
	tracer  trace.Tracer
}

// New builds an engine from the config.
func New(cfg Config) (*Engine, error) {
	if cfg.Rules == nil {
		return nil, fmt.Errorf("engine: rules are required")
	}
	if cfg.Stores.Characters == nil || cfg.Stores.Corruption == nil ||
		cfg.Stores.Stress == nil || cfg.Stores.Checks == nil || cfg.Stores.Fumbles == nil {
		return nil, fmt.Errorf("engine: all stores are required")
	}
	if cfg.RNG == nil {
		return nil, fmt.Errorf("engine: rng is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		rules:   cfg.Rules,
		stores:  cfg.Stores,
		rng:     cfg.RNG,
		clock:   clock,
		emitter: cfg.Emitter,
		tracer:  otel.Tracer("runerust/engine"),
	}, nil
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

func (e *Engine) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name)
}

// EnsureCharacter returns the character's state, creating starting
// meters and a corruption tracker on first sight.
func (e *Engine) EnsureCharacter(ctx context.Context, characterID string) (storage.CharacterState, error) {
	ctx, span := e.startSpan(ctx, "engine.EnsureCharacter")
	defer span.End()

	state, err := e.stores.Characters.Get(ctx, characterID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.CharacterState{}, err
	}

	now := e.now()
	state = storage.CharacterState{
		CharacterID: characterID,
		Meters:      make(map[resource.Type]resource.Meter, len(e.rules.Resources)),
		UpdatedAt:   now,
	}
	for resourceType, rules := range e.rules.Resources {
		state.Meters[resourceType] = resource.NewMeter(characterID, rules.Table, now)
	}
	if err := e.stores.Characters.Put(ctx, state); err != nil {
		return storage.CharacterState{}, err
	}

	tracker, err := corruption.NewTracker(characterID, e.rules.Stages, now)
	if err != nil {
		return storage.CharacterState{}, err
	}
	if err := e.stores.Corruption.Put(ctx, tracker); err != nil {
		return storage.CharacterState{}, err
	}
	return state, nil
}

// meter fetches one meter from the state, falling back to a fresh one
// when the resource was added to the ruleset after the character.
func (e *Engine) meter(state *storage.CharacterState, resourceType resource.Type) (resource.Meter, *resource.Table) {
	rules := e.rules.Resources[resourceType]
	m, ok := state.Meters[resourceType]
	if !ok {
		m = resource.NewMeter(state.CharacterID, rules.Table, e.now())
	}
	return m, rules.Table
}

func (e *Engine) saveCharacter(ctx context.Context, state storage.CharacterState) error {
	state.UpdatedAt = e.now()
	return e.stores.Characters.Put(ctx, state)
}

func (e *Engine) newID() (string, error) {
	return id.NewID()
}

func intAttr(v int) string {
	return strconv.Itoa(v)
}
