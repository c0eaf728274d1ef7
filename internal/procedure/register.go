// Package procedure holds the server's procedure handlers.
package procedure

import (
	"errors"

	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

var (
	todoInputSchema   = rpc.MustCompile(api.TodoInputShape)
	signUpInputSchema = rpc.MustCompile(api.SignUpInputShape)
)

type Deps struct {
	Logger *zap.Logger
	Signer TokenSigner
}

// Register adds every procedure to reg.
func Register(reg *rpc.Registry, d Deps) error {
	if d.Signer == nil {
		return errors.New("procedure: nil token signer")
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	procs := []rpc.Procedure{
		rpc.Mutation(api.ProcedureCreateTodo, todoInputSchema, createTodo(log)),
		rpc.Mutation(api.ProcedureSignUp, signUpInputSchema, signUp(d.Signer)),
	}
	for _, p := range procs {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
