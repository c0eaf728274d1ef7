package rpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/typed-rpc/api"
)

func TestCompile(t *testing.T) {
	t.Run("rejects duplicate fields", func(t *testing.T) {
		_, err := Compile(api.Shape{{Name: "a", Type: api.TypeString}, {Name: "a", Type: api.TypeBool}})
		assert.Error(t, err)
	})
	t.Run("rejects unknown types", func(t *testing.T) {
		_, err := Compile(api.Shape{{Name: "a", Type: "date"}})
		assert.Error(t, err)
	})
	t.Run("rejects empty names", func(t *testing.T) {
		_, err := Compile(api.Shape{{Type: api.TypeString}})
		assert.Error(t, err)
	})
}

func TestSchema_Validate(t *testing.T) {
	s := MustCompile(api.Shape{
		{Name: "title", Type: api.TypeString},
		{Name: "done", Type: api.TypeBool},
		{Name: "weight", Type: api.TypeNumber},
	})

	t.Run("narrows to declared fields", func(t *testing.T) {
		out, err := s.Validate(map[string]any{
			"title":  "x",
			"done":   true,
			"weight": 2.5,
			"extra":  "ignored",
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "x", "done": true, "weight": 2.5}, out)
	})

	cases := map[string]struct {
		in       any
		field    string
		expected api.Type
		message  string
	}{
		"not an object":  {in: "str", message: `invalid input: expected object, got string("str")`},
		"nil":            {in: nil, message: "invalid input: expected object, got nothing"},
		"missing string": {in: map[string]any{"done": true, "weight": 1.0}, field: "title", expected: api.TypeString, message: `invalid input field "title": expected string, got nothing`},
		"wrong string":   {in: map[string]any{"title": 3.0, "done": true, "weight": 1.0}, field: "title", expected: api.TypeString, message: `invalid input field "title": expected string, got float64(3)`},
		"null string":    {in: map[string]any{"title": nil, "done": true, "weight": 1.0}, field: "title", expected: api.TypeString, message: `invalid input field "title": expected string, got nothing`},
		"wrong number":   {in: map[string]any{"title": "t", "done": true, "weight": []any{}}, field: "weight", expected: api.TypeNumber, message: `invalid input field "weight": expected number, got []interface {}([]interface {}{})`},
		"number as text": {in: map[string]any{"title": "t", "done": true, "weight": "1"}, field: "weight", expected: api.TypeNumber, message: `invalid input field "weight": expected number, got string("1")`},
		"bool as text":   {in: map[string]any{"title": "t", "done": "true", "weight": 1.0}, field: "done", expected: api.TypeBool, message: `invalid input field "done": expected bool, got string("true")`},
		"bool as number": {in: map[string]any{"title": "t", "done": 1.0, "weight": 1.0}, field: "done", expected: api.TypeBool, message: `invalid input field "done": expected bool, got float64(1)`},
		"null bool":      {in: map[string]any{"title": "t", "done": nil, "weight": 1.0}, field: "done", expected: api.TypeBool, message: `invalid input field "done": expected bool, got nothing`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Validate(tc.in)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, tc.expected, ve.Expected)
			assert.Equal(t, tc.message, ve.Error())
			assert.NotContains(t, ve.Error(), "float,")
		})
	}

	t.Run("keeps false", func(t *testing.T) {
		out, err := s.Validate(map[string]any{"title": "t", "done": false, "weight": 0.0})
		require.NoError(t, err)
		assert.Equal(t, false, out["done"])
	})
}
