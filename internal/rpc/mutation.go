package rpc

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/jmehdipour/typed-rpc/api"
)

// TypedHandler is a handler working on a concrete input struct.
type TypedHandler[I, O any] func(ctx context.Context, cc CallContext, in I) (O, error)

// Mutation builds a mutation Procedure from a typed handler. The validated
// input map is decoded into I using its json tags.
func Mutation[I, O any](name string, s *Schema, h TypedHandler[I, O]) Procedure {
	return Procedure{
		Name:   name,
		Kind:   api.KindMutation,
		Schema: s,
		Handler: func(ctx context.Context, cc CallContext, input map[string]any) (any, error) {
			var in I
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				TagName: "json",
				Result:  &in,
			})
			if err != nil {
				return nil, err
			}
			if err := dec.Decode(input); err != nil {
				return nil, fmt.Errorf("decode %s input: %w", name, err)
			}
			return h(ctx, cc, in)
		},
	}
}
