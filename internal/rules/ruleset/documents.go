package ruleset

// JSON document shapes for the two rules files. Field names mirror the
// authored config keys; documents are bound here and converted into
// validated rules types by Load.

type specializationDoc struct {
	Version   string      `json:"version"`
	Rage      resourceDoc `json:"rage"`
	Momentum  resourceDoc `json:"momentum"`
	Coherence resourceDoc `json:"coherence"`
}

type resourceDoc struct {
	MaxValue                    int                  `json:"maxValue"`
	MinValue                    int                  `json:"minValue"`
	StartingValue               int                  `json:"startingValue"`
	DecayPerTurn                int                  `json:"decayPerTurn"`
	DecayMinutesBeforeNonCombat int                  `json:"decayMinutesBeforeNonCombat"`
	DecayOnMiss                 int                  `json:"decayOnMiss"`
	DecayOnStun                 int                  `json:"decayOnStun"`
	DecayOnIdleTurn             int                  `json:"decayOnIdleTurn"`
	Thresholds                  []tierDoc            `json:"thresholds"`
	Sources                     map[string]sourceDoc `json:"sources"`
}

type tierDoc struct {
	Name                   string             `json:"name"`
	MinValue               int                `json:"minValue"`
	MaxValue               int                `json:"maxValue"`
	DamageBonus            int                `json:"damageBonus"`
	AttackBonus            int                `json:"attackBonus"`
	DefensePenalty         int                `json:"defensePenalty"`
	CriticalChance         int                `json:"criticalChance"`
	SoakBonus              int                `json:"soakBonus"`
	BonusAttacks           int                `json:"bonusAttacks"`
	MovementBonusPerTwenty int                `json:"movementBonusPerTwenty"`
	PartyStressReduction   int                `json:"partyStressReduction"`
	MustAttackNearest      bool               `json:"mustAttackNearest"`
	FearImmune             bool               `json:"fearImmune"`
	UltimateEnabled        bool               `json:"ultimateAbilitiesEnabled"`
	HealOnKill             bool               `json:"healOnKill"`
	CascadeRisk            int                `json:"cascadeRisk"`
	CascadeEffects         []cascadeEffectDoc `json:"cascadeEffects"`
}

type sourceDoc struct {
	Flat    *int   `json:"flat"`
	Formula string `json:"formula"`
	Min     *int   `json:"min"`
	Max     *int   `json:"max"`
}

type cascadeEffectDoc struct {
	Effect         string `json:"effect"`
	Weight         int    `json:"weight"`
	CoherenceLoss  int    `json:"coherenceLoss"`
	SelfDamage     int    `json:"selfDamage"`
	StressGain     int    `json:"stressGain"`
	CorruptionGain int    `json:"corruptionGain"`
	DisruptSpell   bool   `json:"disruptSpell"`
}

type traumaDoc struct {
	Version        string            `json:"version"`
	DamageToStress damageToStressDoc `json:"damageToStress"`
	RestRecovery   restRecoveryDoc   `json:"restRecovery"`
	TurnEffects    turnEffectsDoc    `json:"turnEffects"`
	Thresholds     thresholdsDoc     `json:"thresholds"`
	Corruption     corruptionDoc     `json:"corruption"`
	Fumbles        fumblesDoc        `json:"fumbles"`
}

type damageToStressDoc struct {
	Formula                string `json:"formula"`
	CriticalHitStressBonus int    `json:"criticalHitStressBonus"`
	NearDeathStressBonus   int    `json:"nearDeathStressBonus"`
	AllyDeathStressBonus   int    `json:"allyDeathStressBonus"`
	NearDeathHPPercent     int    `json:"nearDeathHpPercent"`
}

type restRecoveryDoc struct {
	ShortRestRageReset      int `json:"shortRestRageReset"`
	ShortRestMomentumReset  int `json:"shortRestMomentumReset"`
	LongRestCoherenceValue  int `json:"longRestCoherenceValue"`
	SanctuaryCoherenceValue int `json:"sanctuaryCoherenceValue"`
}

type turnEffectsDoc struct {
	ApotheosisStressCost   int `json:"apotheosisStressCost"`
	MaxEnvironmentalStress int `json:"maxEnvironmentalStress"`
}

type thresholdsDoc struct {
	CriticalWarningThreshold int    `json:"criticalWarningThreshold"`
	TerminalTriggerThreshold int    `json:"terminalTriggerThreshold"`
	WarningMessage           string `json:"warningMessage"`
	TerminalMessage          string `json:"terminalMessage"`
}

type corruptionDoc struct {
	Stages []stageDoc `json:"stages"`
}

type stageDoc struct {
	Name     string `json:"name"`
	MinValue int    `json:"minValue"`
	MaxValue int    `json:"maxValue"`
}

type fumblesDoc struct {
	Consequences map[string]fumbleDoc `json:"consequences"`
	Generic      fumbleDoc            `json:"generic"`
}

type fumbleDoc struct {
	Description       string `json:"description"`
	DurationSeconds   *int   `json:"durationSeconds"`
	RecoveryCondition string `json:"recoveryCondition"`
}
