package selector

import (
	"fmt"
	"strings"

	"github.com/makalin/LiveWeave/errors"
)

// Operators understood by Rule.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
	OpExists   = "exists"
	OpTruthy   = "truthy"
)

// Rule is one predicate over a record field.
type Rule struct {
	Field    string `json:"field" yaml:"field" toml:"field"`
	Operator string `json:"operator" yaml:"operator" toml:"operator"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
}

func (r Rule) String() string {
	if r.Value == nil {
		return fmt.Sprintf("%s %s", r.Field, r.Operator)
	}
	return fmt.Sprintf("%s %s %v", r.Field, r.Operator, r.Value)
}

// Validate reports an unknown operator.
func (r Rule) Validate() error {
	switch strings.ToLower(r.Operator) {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains, OpExists, OpTruthy, "":
		return nil
	}
	return &errors.ExpressionError{Expr: r.String(), Err: fmt.Errorf("unknown operator %q", r.Operator)}
}

// Eval evaluates r against record. An empty operator means truthy.
func (r Rule) Eval(record any) (bool, error) {
	value, ok := Select(record, r.Field)

	op := strings.ToLower(r.Operator)
	switch op {
	case OpExists:
		return ok, nil
	case OpTruthy, "":
		return ok && Truthy(value), nil
	}

	if err := r.Validate(); err != nil {
		return false, err
	}
	if !ok || value == nil {
		return false, nil
	}

	switch op {
	case OpEq:
		return equal(value, r.Value), nil
	case OpNe:
		return !equal(value, r.Value), nil
	case OpContains:
		return containsValue(value, r.Value), nil
	}

	cmp, err := compareNumbers(value, r.Value)
	if err != nil {
		return false, &errors.ExpressionError{Expr: r.String(), Err: err}
	}
	switch op {
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	case OpLt:
		return cmp < 0, nil
	default:
		return cmp <= 0, nil
	}
}

// Evaluate ANDs rules against record. No rules always matches. The first
// evaluation error stops evaluation and is returned with a false result.
func Evaluate(record any, rules []Rule) (bool, error) {
	for _, rule := range rules {
		matched, err := rule.Eval(record)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// Match is Evaluate with evaluation errors treated as no match.
func Match(record any, rules []Rule) bool {
	matched, err := Evaluate(record, rules)
	return err == nil && matched
}
