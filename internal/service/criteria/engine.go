package criteria

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kickfinder/backend/internal/model/catalog"
	"github.com/kickfinder/backend/internal/model/questionnaire"
)

var ErrIncompleteAnswers = errors.New("incomplete answers")

const (
	TextResultsHeader = "Recommended sneakers:"
	TextNoMatch       = "Unfortunately, no matching sneakers were found."
	TextFailure       = "Something went wrong. We apologize for the inconvenience."
)

// Leanness thresholds. Height in cm minus weight in kg is used as an opaque heuristic.
const (
	leannessCutoff      = 100
	leanCushioning      = 80
	heavierCushioning   = 90
	defaultLowBudget    = 120
	defaultMidBudget    = 180
	defaultQueryTimeout = 5 * time.Second
)

// Limits holds the price ceilings of the low and mid budget tiers.
type Limits struct {
	Low float64
	Mid float64
}

// DefaultLimits returns the stock budget ceilings.
func DefaultLimits() Limits {
	return Limits{Low: defaultLowBudget, Mid: defaultMidBudget}
}

// Engine turns completed answers into a catalog filter and a rendered result.
type Engine struct {
	store   catalog.Store
	limits  Limits
	timeout time.Duration
}

// NewEngine wires the engine to a catalog store.
func NewEngine(store catalog.Store, limits Limits, timeout time.Duration) *Engine {
	if limits.Low <= 0 {
		limits.Low = defaultLowBudget
	}
	if limits.Mid <= 0 {
		limits.Mid = defaultMidBudget
	}
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Engine{store: store, limits: limits, timeout: timeout}
}

// Derive builds the conjunction for answers: budget, leanness, environment, position.
func (e *Engine) Derive(answers questionnaire.Answers) (catalog.Filter, error) {
	if !answers.Complete() {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteAnswers, strings.Join(answers.Missing(), ", "))
	}

	filter := make(catalog.Filter, 0, 7)

	switch answers.Budget {
	case questionnaire.BudgetLow:
		filter = append(filter, le(catalog.Price, e.limits.Low))
	case questionnaire.BudgetMid:
		filter = append(filter, le(catalog.Price, e.limits.Mid))
	case questionnaire.BudgetHigh:
		filter = append(filter, ge(catalog.Price, 0))
	default:
		return nil, fmt.Errorf("%w: budget %q", ErrIncompleteAnswers, answers.Budget)
	}

	if answers.Height-answers.Weight >= leannessCutoff {
		filter = append(filter, ge(catalog.Cushioning, leanCushioning))
	} else {
		filter = append(filter, ge(catalog.Cushioning, heavierCushioning))
	}

	switch answers.Environment {
	case questionnaire.Indoor:
		filter = append(filter, ge(catalog.OutdoorDurability, 0), ge(catalog.MaterialDurability, 60))
	case questionnaire.Outdoor, questionnaire.Both:
		filter = append(filter, ge(catalog.OutdoorDurability, 50), ge(catalog.MaterialDurability, 75))
	default:
		return nil, fmt.Errorf("%w: environment %q", ErrIncompleteAnswers, answers.Environment)
	}

	switch answers.Position {
	case questionnaire.Frontcourt:
		filter = append(filter, ge(catalog.Fit, 80), ge(catalog.Traction, 85), ge(catalog.Support, 75))
	case questionnaire.Backcourt:
		filter = append(filter, ge(catalog.Fit, 65), ge(catalog.Traction, 75), ge(catalog.Support, 85))
	default:
		return nil, fmt.Errorf("%w: position %q", ErrIncompleteAnswers, answers.Position)
	}

	return filter, nil
}

// Search derives the filter and runs it against the catalog.
func (e *Engine) Search(ctx context.Context, answers questionnaire.Answers) (catalog.Filter, []catalog.Match, error) {
	filter, err := e.Derive(answers)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	matches, err := e.store.Query(ctx, filter)
	if err != nil {
		return filter, nil, fmt.Errorf("query catalog: %w", err)
	}
	return filter, matches, nil
}

// Recommend returns text safe to show the user. The error, if any, carries
// the underlying cause and has already been logged.
func (e *Engine) Recommend(ctx context.Context, answers questionnaire.Answers) (string, error) {
	_, matches, err := e.Search(ctx, answers)
	if err != nil {
		log.Printf("[criteria] recommendation failed: %v", err)
		return TextFailure, err
	}
	return Render(matches), nil
}

// Render formats matches as an enumerated list, or the no-match message.
func Render(matches []catalog.Match) string {
	if len(matches) == 0 {
		return TextNoMatch
	}

	var b strings.Builder
	b.WriteString(TextResultsHeader)
	for i, m := range matches {
		fmt.Fprintf(&b, "\n%d. %s (%s $)", i+1, m.Name, strconv.FormatFloat(m.Price, 'f', -1, 64))
	}
	return b.String()
}

func le(attr catalog.Attribute, v float64) catalog.Constraint {
	return catalog.Constraint{Attribute: attr, Operator: catalog.LessOrEqual, Threshold: v}
}

func ge(attr catalog.Attribute, v float64) catalog.Constraint {
	return catalog.Constraint{Attribute: attr, Operator: catalog.GreaterOrEqual, Threshold: v}
}
