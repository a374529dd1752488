package catalog

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownAttribute = errors.New("unknown catalog attribute")
	ErrUnknownOperator  = errors.New("unknown comparison operator")
)

// Attribute names a queryable catalog column.
type Attribute string

const (
	Price              Attribute = "price"
	Cushioning         Attribute = "cushioning"
	OutdoorDurability  Attribute = "outdoor_durability"
	Fit                Attribute = "fit"
	Traction           Attribute = "traction"
	Support            Attribute = "support"
	MaterialDurability Attribute = "material_durability"
)

// Attributes lists every attribute a Constraint may reference.
var Attributes = []Attribute{Price, Cushioning, OutdoorDurability, Fit, Traction, Support, MaterialDurability}

// Valid reports whether a is in the whitelist.
func (a Attribute) Valid() bool {
	for _, known := range Attributes {
		if a == known {
			return true
		}
	}
	return false
}

// Operator is a numeric comparison.
type Operator string

const (
	LessOrEqual    Operator = "<="
	GreaterOrEqual Operator = ">="
	Less           Operator = "<"
	Greater        Operator = ">"
	Equal          Operator = "="
)

// Operators lists the supported comparisons.
var Operators = []Operator{LessOrEqual, GreaterOrEqual, Less, Greater, Equal}

// Valid reports whether o is a supported comparison.
func (o Operator) Valid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}
	return false
}

// Compare applies the operator as "value <op> threshold".
func (o Operator) Compare(value, threshold float64) bool {
	switch o {
	case LessOrEqual:
		return value <= threshold
	case GreaterOrEqual:
		return value >= threshold
	case Less:
		return value < threshold
	case Greater:
		return value > threshold
	case Equal:
		return value == threshold
	}
	return false
}

// Constraint is a single (attribute, operator, threshold) test.
type Constraint struct {
	Attribute Attribute `json:"attribute"`
	Operator  Operator  `json:"operator"`
	Threshold float64   `json:"threshold"`
}

// Validate checks the attribute and operator against the whitelists.
func (c Constraint) Validate() error {
	if !c.Attribute.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, c.Attribute)
	}
	if !c.Operator.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, c.Operator)
	}
	return nil
}

// Holds reports whether value satisfies the constraint.
func (c Constraint) Holds(value float64) bool {
	return c.Operator.Compare(value, c.Threshold)
}

func (c Constraint) String() string {
	return string(c.Attribute) + " " + string(c.Operator) + " " + strconv.FormatFloat(c.Threshold, 'f', -1, 64)
}

// Filter is a conjunction of constraints. Order carries no meaning.
type Filter []Constraint

// Validate checks every constraint.
func (f Filter) Validate() error {
	for _, c := range f {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether item satisfies every constraint.
func (f Filter) Matches(item Item) bool {
	for _, c := range f {
		value, ok := item.Value(c.Attribute)
		if !ok || !c.Holds(value) {
			return false
		}
	}
	return true
}

// Equal compares two filters as sets.
func (f Filter) Equal(other Filter) bool {
	if len(f) != len(other) {
		return false
	}
	counts := make(map[Constraint]int, len(f))
	for _, c := range f {
		counts[c]++
	}
	for _, c := range other {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}
