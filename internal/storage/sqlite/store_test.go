package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/runerust/internal/rules/check"
	"github.com/louisbranch/runerust/internal/rules/corruption"
	"github.com/louisbranch/runerust/internal/rules/fumble"
	"github.com/louisbranch/runerust/internal/rules/resource"
	"github.com/louisbranch/runerust/internal/rules/trauma"
	"github.com/louisbranch/runerust/internal/storage"
)

func openTestStores(t *testing.T) storage.Stores {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "runerust.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store.Stores()
}

// testTime returns a millisecond-precision UTC time, matching storage
// resolution so round trips compare equal.
func testTime(offset time.Duration) time.Time {
	return time.UnixMilli(1_700_000_000_000).UTC().Add(offset)
}

func TestCharacterRoundTrip(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	state := storage.CharacterState{
		CharacterID: "char-1",
		Meters: map[resource.Type]resource.Meter{
			resource.Rage: {
				CharacterID:      "char-1",
				Type:             resource.Rage,
				Value:            35,
				LastCombatAction: testTime(0),
				LastUpdated:      testTime(time.Minute),
			},
			resource.Momentum: {
				CharacterID:    "char-1",
				Type:           resource.Momentum,
				Value:          12,
				IdleTurns:      2,
				HitChainBroken: true,
				LastUpdated:    testTime(time.Minute),
			},
		},
		Stress:    40,
		UpdatedAt: testTime(time.Minute),
	}
	if err := stores.Characters.Put(ctx, state); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := stores.Characters.Get(ctx, "char-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Stress != 40 {
		t.Fatalf("Stress = %d, want 40", got.Stress)
	}
	if len(got.Meters) != 2 {
		t.Fatalf("len(Meters) = %d, want 2", len(got.Meters))
	}
	rage := got.Meters[resource.Rage]
	if rage.Value != 35 || !rage.LastCombatAction.Equal(testTime(0)) {
		t.Fatalf("rage meter = %+v", rage)
	}
	momentum := got.Meters[resource.Momentum]
	if momentum.IdleTurns != 2 || !momentum.HitChainBroken {
		t.Fatalf("momentum meter = %+v", momentum)
	}
	if !momentum.LastCombatAction.IsZero() {
		t.Fatalf("LastCombatAction = %v, want zero", momentum.LastCombatAction)
	}

	// Overwriting replaces, not accumulates.
	state.Stress = 55
	if err := stores.Characters.Put(ctx, state); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}
	got, err = stores.Characters.Get(ctx, "char-1")
	if err != nil {
		t.Fatalf("Get() after update error = %v", err)
	}
	if got.Stress != 55 {
		t.Fatalf("Stress after update = %d, want 55", got.Stress)
	}

	if err := stores.Characters.Delete(ctx, "char-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := stores.Characters.Get(ctx, "char-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCorruptionTrackerAndHistory(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	tracker := corruption.Tracker{
		CharacterID:          "char-1",
		Current:              55,
		Stage:                "Infected",
		Threshold25Triggered: true,
		Threshold50Triggered: true,
		CreatedAt:            testTime(0),
		UpdatedAt:            testTime(time.Hour),
	}
	if err := stores.Corruption.Put(ctx, tracker); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := stores.Corruption.Get(ctx, "char-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Current != 55 || got.Stage != "Infected" {
		t.Fatalf("tracker = %+v", got)
	}
	if !got.Threshold25Triggered || !got.Threshold50Triggered || got.Threshold75Triggered {
		t.Fatalf("threshold flags = %v %v %v", got.Threshold25Triggered, got.Threshold50Triggered, got.Threshold75Triggered)
	}

	for i := 0; i < 4; i++ {
		entry := corruption.HistoryEntry{
			ID:          string(rune('a' + i)),
			CharacterID: "char-1",
			Source:      "ritual",
			Amount:      5,
			NewTotal:    5 * (i + 1),
			CreatedAt:   testTime(time.Duration(i) * time.Minute),
		}
		if err := stores.Corruption.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}
	}

	history, err := stores.Corruption.History(ctx, "char-1", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].ID != "d" || history[1].ID != "c" {
		t.Fatalf("history order = %s, %s, want d, c", history[0].ID, history[1].ID)
	}

	all, err := stores.Corruption.History(ctx, "char-1", 0)
	if err != nil {
		t.Fatalf("History() unlimited error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}

	if err := stores.Corruption.Delete(ctx, "char-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := stores.Corruption.Get(ctx, "char-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	all, err = stores.Corruption.History(ctx, "char-1", 0)
	if err != nil {
		t.Fatalf("History() after delete error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("len(history) after delete = %d, want 0", len(all))
	}
}

func TestStressHistoryOrdering(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := trauma.HistoryEntry{
			ID:             string(rune('a' + i)),
			CharacterID:    "char-1",
			Source:         "damage",
			Amount:         10,
			FinalAmount:    10,
			PreviousStress: 10 * i,
			NewStress:      10 * (i + 1),
			CreatedAt:      testTime(time.Duration(i) * time.Minute),
		}
		if err := stores.Stress.Append(ctx, entry); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	history, err := stores.Stress.History(ctx, "char-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(history))
	}
	if history[0].ID != "c" || history[2].ID != "a" {
		t.Fatalf("history order = %s .. %s, want c .. a", history[0].ID, history[2].ID)
	}
	if history[0].NewStress != 30 {
		t.Fatalf("NewStress = %d, want 30", history[0].NewStress)
	}

	if err := stores.Stress.Delete(ctx, "char-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	history, err = stores.Stress.History(ctx, "char-1", 0)
	if err != nil {
		t.Fatalf("History() after delete error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("len(history) after delete = %d, want 0", len(history))
	}
}

func testChain(t *testing.T, checkID string, now time.Time) check.State {
	t.Helper()
	state, err := check.NewChain(checkID, "char-1", "interrogation", []check.Step{
		{Name: "establish rapport", Skill: "persuasion", Difficulty: 12, RetriesAllowed: 1},
		{Name: "press for details", Skill: "insight", Difficulty: 14},
	}, now)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}
	return state
}

func TestCheckAddIfAbsentAndUpsert(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	state := testChain(t, "check-1", testTime(0))
	inserted, err := stores.Checks.AddIfAbsent(ctx, state)
	if err != nil {
		t.Fatalf("AddIfAbsent() error = %v", err)
	}
	if !inserted {
		t.Fatal("AddIfAbsent() inserted = false, want true")
	}

	// A second add with the same id must not overwrite.
	altered := state
	altered.CurrentStep = 1
	inserted, err = stores.Checks.AddIfAbsent(ctx, altered)
	if err != nil {
		t.Fatalf("AddIfAbsent() repeat error = %v", err)
	}
	if inserted {
		t.Fatal("AddIfAbsent() repeat inserted = true, want false")
	}
	got, err := stores.Checks.Get(ctx, "check-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.CurrentStep != 0 {
		t.Fatalf("CurrentStep = %d, want 0", got.CurrentStep)
	}
	if len(got.Steps) != 2 || got.Steps[0].Skill != "persuasion" || got.Steps[0].RetriesAllowed != 1 {
		t.Fatalf("Steps = %+v", got.Steps)
	}

	// Upsert does overwrite.
	altered.Status = check.InProgress
	altered.AwaitingRetry = true
	altered.RetriesUsed = 1
	altered.UpdatedAt = testTime(time.Minute)
	if err := stores.Checks.Upsert(ctx, altered); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	got, err = stores.Checks.Get(ctx, "check-1")
	if err != nil {
		t.Fatalf("Get() after upsert error = %v", err)
	}
	if got.CurrentStep != 1 || got.Status != check.InProgress || !got.AwaitingRetry || got.RetriesUsed != 1 {
		t.Fatalf("state after upsert = %+v", got)
	}
}

func TestCheckActiveByCharacter(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	active := testChain(t, "check-active", testTime(0))
	done := testChain(t, "check-done", testTime(time.Minute))
	done.Status = check.Success
	abandoned := testChain(t, "check-abandoned", testTime(2*time.Minute))
	abandoned.Status = check.Abandoned

	for _, state := range []check.State{done, active, abandoned} {
		if err := stores.Checks.Upsert(ctx, state); err != nil {
			t.Fatalf("Upsert(%s) error = %v", state.CheckID, err)
		}
	}

	got, err := stores.Checks.ActiveByCharacter(ctx, "char-1")
	if err != nil {
		t.Fatalf("ActiveByCharacter() error = %v", err)
	}
	if len(got) != 1 || got[0].CheckID != "check-active" {
		t.Fatalf("active checks = %+v, want only check-active", got)
	}

	if err := stores.Checks.RemoveAllForCharacter(ctx, "char-1"); err != nil {
		t.Fatalf("RemoveAllForCharacter() error = %v", err)
	}
	if _, err := stores.Checks.Get(ctx, "check-done"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() after removal error = %v, want ErrNotFound", err)
	}
}

func TestFumbleActiveFiltering(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()
	asOf := testTime(time.Hour)

	tenMinutes := 10 * time.Minute
	consequences := []fumble.Consequence{
		{
			ConsequenceID: "cons-open",
			CharacterID:   "char-1",
			TargetID:      "npc-1",
			SkillID:       "persuasion",
			FumbleType:    fumble.TrustShattered,
			Description:   "npc-1 no longer trusts you",
			IsActive:      true,
			CreatedAt:     testTime(0),
		},
		{
			ConsequenceID: "cons-expired",
			CharacterID:   "char-1",
			FumbleType:    fumble.Type("generic"),
			Duration:      &tenMinutes,
			IsActive:      true,
			CreatedAt:     testTime(0),
		},
		{
			ConsequenceID: "cons-resolved",
			CharacterID:   "char-1",
			FumbleType:    fumble.TrustShattered,
			IsActive:      false,
			CreatedAt:     testTime(0),
		},
		{
			ConsequenceID: "cons-running",
			CharacterID:   "char-1",
			FumbleType:    fumble.Type("generic"),
			Duration:      &tenMinutes,
			IsActive:      true,
			CreatedAt:     testTime(55 * time.Minute),
		},
	}
	for _, consequence := range consequences {
		if err := stores.Fumbles.Add(ctx, consequence); err != nil {
			t.Fatalf("Add(%s) error = %v", consequence.ConsequenceID, err)
		}
	}

	got, err := stores.Fumbles.ActiveByCharacter(ctx, "char-1", asOf)
	if err != nil {
		t.Fatalf("ActiveByCharacter() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(got))
	}
	if got[0].ConsequenceID != "cons-open" || got[1].ConsequenceID != "cons-running" {
		t.Fatalf("active = %s, %s, want cons-open, cons-running", got[0].ConsequenceID, got[1].ConsequenceID)
	}
	if got[1].Duration == nil || *got[1].Duration != tenMinutes {
		t.Fatalf("Duration = %v, want %v", got[1].Duration, tenMinutes)
	}

	// Exactly at expiry counts as expired.
	boundary := testTime(55*time.Minute + tenMinutes)
	got, err = stores.Fumbles.ActiveByCharacter(ctx, "char-1", boundary)
	if err != nil {
		t.Fatalf("ActiveByCharacter() at boundary error = %v", err)
	}
	if len(got) != 1 || got[0].ConsequenceID != "cons-open" {
		t.Fatalf("active at boundary = %+v, want only cons-open", got)
	}
}

func TestFumbleUpdateAndRemove(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	consequence := fumble.Consequence{
		ConsequenceID:     "cons-1",
		CharacterID:       "char-1",
		TargetID:          "npc-1",
		FumbleType:        fumble.LieExposed,
		Description:       "npc-1 knows you lied",
		RecoveryCondition: "benefit_npc-1",
		IsActive:          true,
		CreatedAt:         testTime(0),
	}
	if err := stores.Fumbles.Add(ctx, consequence); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	consequence.IsActive = false
	if err := stores.Fumbles.Update(ctx, consequence); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := stores.Fumbles.Get(ctx, "cons-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.IsActive {
		t.Fatal("IsActive = true, want false")
	}
	if got.RecoveryCondition != "benefit_npc-1" || got.FumbleType != fumble.LieExposed {
		t.Fatalf("consequence = %+v", got)
	}

	if err := stores.Fumbles.Remove(ctx, "cons-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := stores.Fumbles.Get(ctx, "cons-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() after remove error = %v, want ErrNotFound", err)
	}
	if err := stores.Fumbles.Remove(ctx, "cons-1"); err != nil {
		t.Fatalf("Remove() absent error = %v", err)
	}
}

func TestBlankIDsRejected(t *testing.T) {
	stores := openTestStores(t)
	ctx := context.Background()

	if _, err := stores.Characters.Get(ctx, "  "); err == nil {
		t.Fatal("Characters.Get(blank) error = nil, want error")
	}
	if err := stores.Characters.Put(ctx, storage.CharacterState{}); err == nil {
		t.Fatal("Characters.Put(blank) error = nil, want error")
	}
	if _, err := stores.Corruption.History(ctx, "", 0); err == nil {
		t.Fatal("Corruption.History(blank) error = nil, want error")
	}
	if _, err := stores.Checks.AddIfAbsent(ctx, check.State{CharacterID: "char-1"}); err == nil {
		t.Fatal("Checks.AddIfAbsent(blank id) error = nil, want error")
	}
	if err := stores.Fumbles.Add(ctx, fumble.Consequence{ConsequenceID: "cons-1"}); err == nil {
		t.Fatal("Fumbles.Add(blank character) error = nil, want error")
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runerust.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	state := storage.CharacterState{
		CharacterID: "char-1",
		Meters: map[resource.Type]resource.Meter{
			resource.Coherence: {CharacterID: "char-1", Type: resource.Coherence, Value: 50, LastUpdated: testTime(0)},
		},
		Stress:    10,
		UpdatedAt: testTime(0),
	}
	if err := store.Stores().Characters.Put(ctx, state); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Stores().Characters.Get(ctx, "char-1")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Stress != 10 || got.Meters[resource.Coherence].Value != 50 {
		t.Fatalf("state after reopen = %+v", got)
	}
}
