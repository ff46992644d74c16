// Package errors provides structured error handling for the rules engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Ruleset/configuration errors
	CodeRulesetInvalidRange       Code = "RULESET_INVALID_RANGE"
	CodeRulesetTierGap            Code = "RULESET_TIER_GAP"
	CodeRulesetTierOverlap        Code = "RULESET_TIER_OVERLAP"
	CodeRulesetInvalidThresholds  Code = "RULESET_INVALID_THRESHOLDS"
	CodeRulesetInvalidStageLadder Code = "RULESET_INVALID_STAGE_LADDER"
	CodeRulesetInvalidFormula     Code = "RULESET_INVALID_FORMULA"
	CodeRulesetInvalidSource      Code = "RULESET_INVALID_SOURCE"

	// Resource meter errors
	CodeResourceUnknownType      Code = "RESOURCE_UNKNOWN_TYPE"
	CodeResourceNoTier           Code = "RESOURCE_NO_TIER"
	CodeResourceUnknownSource    Code = "RESOURCE_UNKNOWN_SOURCE"
	CodeResourceCombatRestricted Code = "RESOURCE_COMBAT_RESTRICTED"

	// Stress/trauma errors
	CodeStressInvalidAmount  Code = "STRESS_INVALID_AMOUNT"
	CodeStressUnknownRest    Code = "STRESS_UNKNOWN_REST_TYPE"
	CodeTraumaMissingContext Code = "TRAUMA_MISSING_CONTEXT"

	// Corruption errors
	CodeCorruptionEmptyCharacterID Code = "CORRUPTION_EMPTY_CHARACTER_ID"
	CodeCorruptionEmptySource      Code = "CORRUPTION_EMPTY_SOURCE"

	// Chained check errors
	CodeChainEmptyCheckID     Code = "CHAIN_EMPTY_CHECK_ID"
	CodeChainEmptyCharacterID Code = "CHAIN_EMPTY_CHARACTER_ID"
	CodeChainDuplicateCheckID Code = "CHAIN_DUPLICATE_CHECK_ID"
	CodeChainTerminalState    Code = "CHAIN_TERMINAL_STATE"
	CodeChainNoRetries        Code = "CHAIN_NO_RETRIES"
	CodeChainNoSteps          Code = "CHAIN_NO_STEPS"

	// Fumble consequence errors
	CodeFumbleEmptyConsequenceID Code = "FUMBLE_EMPTY_CONSEQUENCE_ID"
	CodeFumbleEmptyCharacterID   Code = "FUMBLE_EMPTY_CHARACTER_ID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Random/seed errors
	CodeSeedUnavailable Code = "SEED_UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeRulesetInvalidRange,
		CodeRulesetInvalidThresholds,
		CodeRulesetInvalidStageLadder,
		CodeRulesetInvalidFormula,
		CodeRulesetInvalidSource,
		CodeRulesetTierGap,
		CodeRulesetTierOverlap,
		CodeResourceUnknownType,
		CodeResourceUnknownSource,
		CodeStressInvalidAmount,
		CodeStressUnknownRest,
		CodeTraumaMissingContext,
		CodeCorruptionEmptyCharacterID,
		CodeCorruptionEmptySource,
		CodeChainEmptyCheckID,
		CodeChainEmptyCharacterID,
		CodeChainNoSteps,
		CodeFumbleEmptyConsequenceID,
		CodeFumbleEmptyCharacterID:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeChainTerminalState,
		CodeChainNoRetries,
		CodeResourceCombatRestricted:
		return codes.FailedPrecondition

	// AlreadyExists - unique resource constraint
	case CodeChainDuplicateCheckID:
		return codes.AlreadyExists

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeResourceNoTier:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
