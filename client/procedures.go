package client

import (
	"context"

	"github.com/jmehdipour/typed-rpc/api"
)

// Mutate calls a mutation procedure with typed input and result.
func Mutate[I, O any](ctx context.Context, c *Client, procedure string, in I) (O, error) {
	var out O
	err := c.Call(ctx, procedure, in, &out)
	return out, err
}

func (c *Client) CreateTodo(ctx context.Context, in api.TodoInput) (api.TodoResult, error) {
	return Mutate[api.TodoInput, api.TodoResult](ctx, c, api.ProcedureCreateTodo, in)
}

func (c *Client) SignUp(ctx context.Context, in api.SignUpInput) (api.SignUpResult, error) {
	return Mutate[api.SignUpInput, api.SignUpResult](ctx, c, api.ProcedureSignUp, in)
}
