// Package api is the contract shared by the server and its clients: procedure
// names, input/output types, input shapes and the envelope wire format.
package api

const (
	ProcedureCreateTodo = "createTodo"
	ProcedureSignUp     = "signUp"
)

// Kind tells whether a procedure may have side effects.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

type TodoInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TodoResult.ID is a placeholder; todos are not stored.
type TodoResult struct {
	ID string `json:"id"`
}

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpResult struct {
	Token string `json:"token"`
}

var (
	TodoInputShape = Shape{
		{Name: "title", Type: TypeString},
		{Name: "description", Type: TypeString},
	}

	SignUpInputShape = Shape{
		{Name: "email", Type: TypeString},
		{Name: "password", Type: TypeString},
	}
)
