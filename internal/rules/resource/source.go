package resource

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/runerust/internal/platform/errors"
	"github.com/louisbranch/runerust/internal/platform/random"
)

// SourceKind discriminates the generation rule behind a source event.
type SourceKind int

const (
	// SourceFlat yields a fixed amount.
	SourceFlat SourceKind = iota
	// SourceFormula yields floor(input / divisor) over a named event input.
	SourceFormula
	// SourceVariable yields a uniform amount in [Min,Max].
	SourceVariable
)

// Formula is the parsed form of a generation expression such as
// "floor(damage / 5)". A zero Formula evaluates to 0, which is the
// fail-closed replacement for malformed config expressions.
type Formula struct {
	Input   string
	Divisor int
}

var formulaPattern = regexp.MustCompile(`^floor\(\s*([a-zA-Z][a-zA-Z0-9_]*)\s*/\s*([0-9]+)\s*\)$`)

// ParseFormula parses a floor-division expression eagerly so the turn
// pipeline never re-parses strings per event.
func ParseFormula(expr string) (Formula, error) {
	match := formulaPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if match == nil {
		return Formula{}, apperrors.WithMetadata(
			apperrors.CodeRulesetInvalidFormula,
			"formula must have the form floor(input / divisor)",
			map[string]string{"expression": expr},
		)
	}
	divisor, err := strconv.Atoi(match[2])
	if err != nil || divisor <= 0 {
		return Formula{}, apperrors.WithMetadata(
			apperrors.CodeRulesetInvalidFormula,
			"formula divisor must be a positive integer",
			map[string]string{"expression": expr},
		)
	}
	return Formula{Input: match[1], Divisor: divisor}, nil
}

// Evaluate applies the formula to the event inputs. Missing inputs and
// the zero Formula contribute nothing.
func (f Formula) Evaluate(inputs map[string]int) int {
	if f.Divisor <= 0 {
		return 0
	}
	value, ok := inputs[f.Input]
	if !ok || value <= 0 {
		return 0
	}
	return value / f.Divisor
}

// Source is one event's generation rule for a resource meter.
type Source struct {
	Event   string
	Kind    SourceKind
	Flat    int
	Formula Formula
	Min     int
	Max     int
}

// Amount computes the gain for one firing of the source. Variable
// sources draw from rng; flat and formula sources ignore it.
func (s Source) Amount(inputs map[string]int, rng random.Source) int {
	switch s.Kind {
	case SourceFlat:
		return s.Flat
	case SourceFormula:
		return s.Formula.Evaluate(inputs)
	case SourceVariable:
		if s.Max <= s.Min {
			return s.Min
		}
		return s.Min + rng.IntN(s.Max-s.Min+1)
	default:
		return 0
	}
}

// SourceSet maps event keys to generation rules for one resource.
type SourceSet map[string]Source

// Amount resolves the source for event and computes its gain. Unknown
// events report ok=false so callers can distinguish "no rule" from a
// zero gain.
func (s SourceSet) Amount(event string, inputs map[string]int, rng random.Source) (int, bool) {
	src, ok := s[event]
	if !ok {
		return 0, false
	}
	return src.Amount(inputs, rng), true
}

// ValidateVariable checks a variable source's bounds at load time.
func ValidateVariable(event string, min, max int) error {
	if min < 0 || max < min {
		return apperrors.WithMetadata(
			apperrors.CodeRulesetInvalidSource,
			"variable source must satisfy 0 <= min <= max",
			map[string]string{
				"event": event,
				"min":   fmt.Sprint(min),
				"max":   fmt.Sprint(max),
			},
		)
	}
	return nil
}
