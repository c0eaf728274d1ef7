package rpc

import (
	"errors"
	"fmt"

	"github.com/juju/schema"

	"github.com/jmehdipour/typed-rpc/api"
)

type field struct {
	name    string
	typ     api.Type
	checker schema.Checker
}

// Schema validates call input against an api.Shape.
type Schema struct {
	shape  api.Shape
	fields []field
}

// Compile builds a Schema from shape. Field names must be unique and
// non-empty, and every type must be known.
func Compile(shape api.Shape) (*Schema, error) {
	s := &Schema{shape: shape, fields: make([]field, 0, len(shape))}
	seen := make(map[string]struct{}, len(shape))
	for _, f := range shape {
		if f.Name == "" {
			return nil, errors.New("empty field name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		var c schema.Checker
		switch f.Type {
		case api.TypeString:
			c = schema.String()
		case api.TypeBool:
			c = strictBool{}
		case api.TypeNumber:
			c = schema.Float()
		default:
			return nil, fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		s.fields = append(s.fields, field{name: f.Name, typ: f.Type, checker: c})
	}
	return s, nil
}

// MustCompile is like Compile but panics on error. For package-level shapes.
func MustCompile(shape api.Shape) *Schema {
	s, err := Compile(shape)
	if err != nil {
		panic(err)
	}
	return s
}

// Shape returns the shape the schema was compiled from.
func (s *Schema) Shape() api.Shape { return s.shape }

// Validate narrows v to the declared fields. Unknown fields are dropped,
// missing or mistyped ones yield a *ValidationError.
func (s *Schema) Validate(v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		got := describe(v)
		return nil, &ValidationError{Got: got, Err: fmt.Errorf("expected object, got %s", got)}
	}

	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		// a missing key is coerced as nil so the checker reports "got nothing"
		coerced, err := f.checker.Coerce(obj[f.name], nil)
		if err != nil {
			return nil, &ValidationError{Field: f.name, Expected: f.typ, Got: describe(obj[f.name]), Err: err}
		}
		out[f.name] = coerced
	}
	return out, nil
}

// strictBool accepts only JSON booleans; schema.Bool alone would also parse
// strings such as "true".
type strictBool struct{}

func (strictBool) Coerce(v any, path []string) (any, error) {
	if _, ok := v.(bool); !ok {
		return nil, fmt.Errorf("expected bool, got %s", describe(v))
	}
	return schema.Bool().Coerce(v, path)
}

// describe renders a value the way juju/schema does in its errors.
func describe(v any) string {
	if v == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T(%#v)", v, v)
}
