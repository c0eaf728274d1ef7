package procedure

import (
	"context"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

// TokenSigner signs a claim set into an opaque credential.
type TokenSigner interface {
	Sign(claims map[string]any) (string, error)
}

// signUp does not check for existing accounts. The token payload holds only
// the password.
func signUp(signer TokenSigner) rpc.TypedHandler[api.SignUpInput, api.SignUpResult] {
	return func(ctx context.Context, _ rpc.CallContext, in api.SignUpInput) (api.SignUpResult, error) {
		tok, err := signer.Sign(map[string]any{"password": in.Password})
		if err != nil {
			return api.SignUpResult{}, &rpc.SigningError{Err: err}
		}
		return api.SignUpResult{Token: tok}, nil
	}
}
