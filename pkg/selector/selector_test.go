package selector

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalin/LiveWeave/errors"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestSelect(t *testing.T) {
	record := decode(t, `{"count":2,"user":{"name":"ada","tags":["a","b"]},"items":[{"id":1},{"id":2}],"empty":null}`)

	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{"", record, true},
		{"count", 2.0, true},
		{"user.name", "ada", true},
		{"user.tags.1", "b", true},
		{"items.0.id", 1.0, true},
		{"empty", nil, true},
		{"missing", nil, false},
		{"user.missing.deeper", nil, false},
		{"items.5", nil, false},
		{"items.x", nil, false},
		{"count.value", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Select(record, tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(math.NaN()))
	assert.False(t, Truthy(""))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy(1.0))
	assert.True(t, Truthy(map[string]any{}))
	assert.True(t, Truthy([]any{}))
}

func TestRuleEval(t *testing.T) {
	record := decode(t, `{"count":5,"status":"online","tags":["x","y"],"note":"hello world","flag":false}`)

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"eq number", Rule{Field: "count", Operator: "eq", Value: 5}, true},
		{"eq numeric string", Rule{Field: "count", Operator: "eq", Value: "5"}, true},
		{"eq string", Rule{Field: "status", Operator: "eq", Value: "online"}, true},
		{"ne", Rule{Field: "status", Operator: "ne", Value: "offline"}, true},
		{"gt", Rule{Field: "count", Operator: "gt", Value: 4}, true},
		{"gte", Rule{Field: "count", Operator: "gte", Value: 5}, true},
		{"lt", Rule{Field: "count", Operator: "lt", Value: 5}, false},
		{"lte", Rule{Field: "count", Operator: "LTE", Value: 5.0}, true},
		{"contains string", Rule{Field: "note", Operator: "contains", Value: "world"}, true},
		{"contains array", Rule{Field: "tags", Operator: "contains", Value: "y"}, true},
		{"contains array miss", Rule{Field: "tags", Operator: "contains", Value: "z"}, false},
		{"exists", Rule{Field: "flag", Operator: "exists"}, true},
		{"exists missing", Rule{Field: "nope", Operator: "exists"}, false},
		{"truthy false", Rule{Field: "flag", Operator: "truthy"}, false},
		{"default truthy", Rule{Field: "status"}, true},
		{"missing field", Rule{Field: "nope", Operator: "eq", Value: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.Eval(record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleEval_Errors(t *testing.T) {
	record := decode(t, `{"status":"online"}`)

	_, err := Rule{Field: "status", Operator: "gt", Value: 3}.Eval(record)
	var xe *errors.ExpressionError
	require.ErrorAs(t, err, &xe)
	assert.Equal(t, "status gt 3", xe.Expr)

	_, err = Rule{Field: "status", Operator: "matches", Value: "on.*"}.Eval(record)
	require.ErrorAs(t, err, &xe)
	assert.Error(t, Rule{Operator: "matches"}.Validate())
}

func TestMatch(t *testing.T) {
	record := decode(t, `{"count":3,"status":"online"}`)

	assert.True(t, Match(record, nil))
	assert.True(t, Match(record, []Rule{
		{Field: "count", Operator: "gt", Value: 1},
		{Field: "status", Operator: "eq", Value: "online"},
	}))
	assert.False(t, Match(record, []Rule{
		{Field: "count", Operator: "gt", Value: 1},
		{Field: "status", Operator: "eq", Value: "offline"},
	}))
	// Evaluation errors count as no match.
	assert.False(t, Match(record, []Rule{{Field: "status", Operator: "lt", Value: 1}}))

	matched, err := Evaluate(record, []Rule{{Field: "status", Operator: "lt", Value: 1}})
	assert.False(t, matched)
	assert.Error(t, err)
}
