package questionnaire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedInput = errors.New("malformed input")
	ErrAnswerWritten  = errors.New("answer already recorded")
)

// Environment 表示用户打球的场地类型。
type Environment string

const (
	Indoor  Environment = "indoor"
	Outdoor Environment = "outdoor"
	Both    Environment = "both"
)

// Position 表示用户的场上位置组。
type Position string

const (
	Frontcourt Position = "frontcourt"
	Backcourt  Position = "backcourt"
)

// Budget 表示用户的预算档位。
type Budget string

const (
	BudgetLow  Budget = "low"
	BudgetMid  Budget = "mid"
	BudgetHigh Budget = "high"
)

// ParseEnvironment rejects anything outside the three offered buttons.
func ParseEnvironment(raw string) (Environment, error) {
	switch env := Environment(strings.TrimSpace(raw)); env {
	case Indoor, Outdoor, Both:
		return env, nil
	default:
		return "", fmt.Errorf("%w: environment %q", ErrMalformedInput, raw)
	}
}

// ParsePosition rejects anything outside the two offered buttons.
func ParsePosition(raw string) (Position, error) {
	switch pos := Position(strings.TrimSpace(raw)); pos {
	case Frontcourt, Backcourt:
		return pos, nil
	default:
		return "", fmt.Errorf("%w: position %q", ErrMalformedInput, raw)
	}
}

// ParseBudget rejects anything outside the three offered buttons.
func ParseBudget(raw string) (Budget, error) {
	switch b := Budget(strings.TrimSpace(raw)); b {
	case BudgetLow, BudgetMid, BudgetHigh:
		return b, nil
	default:
		return "", fmt.Errorf("%w: budget %q", ErrMalformedInput, raw)
	}
}

// ParseMetrics parses "height/weight", e.g. "180/75".
func ParseMetrics(text string) (height, weight int, err error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected height/weight, got %q", ErrMalformedInput, text)
	}

	height, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: height %q", ErrMalformedInput, parts[0])
	}
	weight, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: weight %q", ErrMalformedInput, parts[1])
	}
	return height, weight, nil
}

// Answers accumulates the questionnaire results. Each key is written once.
type Answers struct {
	Height      int         `json:"height,omitempty"`
	Weight      int         `json:"weight,omitempty"`
	Environment Environment `json:"environment,omitempty"`
	Position    Position    `json:"position,omitempty"`
	Budget      Budget      `json:"budget,omitempty"`

	HasMetrics bool `json:"-"`
}

// SetMetrics records height and weight.
func (a *Answers) SetMetrics(height, weight int) error {
	if a.HasMetrics {
		return fmt.Errorf("%w: metrics", ErrAnswerWritten)
	}
	a.Height, a.Weight, a.HasMetrics = height, weight, true
	return nil
}

// SetEnvironment records the play environment.
func (a *Answers) SetEnvironment(env Environment) error {
	if a.Environment != "" {
		return fmt.Errorf("%w: environment", ErrAnswerWritten)
	}
	a.Environment = env
	return nil
}

// SetPosition records the position group.
func (a *Answers) SetPosition(pos Position) error {
	if a.Position != "" {
		return fmt.Errorf("%w: position", ErrAnswerWritten)
	}
	a.Position = pos
	return nil
}

// SetBudget records the budget tier.
func (a *Answers) SetBudget(b Budget) error {
	if a.Budget != "" {
		return fmt.Errorf("%w: budget", ErrAnswerWritten)
	}
	a.Budget = b
	return nil
}

// Complete reports whether all five keys are present.
func (a Answers) Complete() bool {
	return a.HasMetrics && a.Environment != "" && a.Position != "" && a.Budget != ""
}

// Missing lists absent keys in questionnaire order.
func (a Answers) Missing() []string {
	var missing []string
	if !a.HasMetrics {
		missing = append(missing, "height", "weight")
	}
	if a.Environment == "" {
		missing = append(missing, "environment")
	}
	if a.Position == "" {
		missing = append(missing, "position")
	}
	if a.Budget == "" {
		missing = append(missing, "budget")
	}
	return missing
}
