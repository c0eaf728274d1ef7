package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmehdipour/typed-rpc/api"
)

// Handler runs a procedure on input already narrowed by its Schema.
type Handler func(ctx context.Context, cc CallContext, input map[string]any) (any, error)

// Procedure is a named, independently invocable unit of server logic.
type Procedure struct {
	Name    string
	Kind    api.Kind
	Schema  *Schema
	Handler Handler
}

// Call describes one finished dispatch, for observers.
type Call struct {
	Procedure string
	Username  string
	Err       error
	Duration  time.Duration
}

// Observer is notified after every dispatch. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveCall(ctx context.Context, call Call)
}

type ObserverFunc func(ctx context.Context, call Call)

func (f ObserverFunc) ObserveCall(ctx context.Context, call Call) { f(ctx, call) }

// Option configures a Registry.
type Option func(*Registry)

// WithAdminCredential sets the Authorization value that maps to Admin.
func WithAdminCredential(credential string) Option {
	return func(r *Registry) { r.contexts.AdminCredential = credential }
}

// WithObserver adds an observer notified after each dispatch.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, o) }
}

// Registry maps procedure names to procedures. Register everything before
// serving and call Seal; a sealed registry is read-only and safe for
// concurrent Dispatch without locking.
type Registry struct {
	procs     map[string]Procedure
	contexts  ContextBuilder
	observers []Observer
	sealed    bool
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		procs:    make(map[string]Procedure),
		contexts: ContextBuilder{AdminCredential: DefaultAdminCredential},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds p. Duplicate names fail with a *RegistrationError.
func (r *Registry) Register(p Procedure) error {
	switch {
	case r.sealed:
		return &RegistrationError{Procedure: p.Name, Reason: "registry is sealed"}
	case p.Name == "":
		return &RegistrationError{Procedure: p.Name, Reason: "empty name"}
	case p.Schema == nil:
		return &RegistrationError{Procedure: p.Name, Reason: "missing input schema"}
	case p.Handler == nil:
		return &RegistrationError{Procedure: p.Name, Reason: "missing handler"}
	}
	if _, dup := r.procs[p.Name]; dup {
		return &RegistrationError{Procedure: p.Name, Reason: "already registered"}
	}
	if p.Kind == "" {
		p.Kind = api.KindMutation
	}
	r.procs[p.Name] = p
	return nil
}

// Seal makes the registry immutable.
func (r *Registry) Seal() { r.sealed = true }

// Procedures lists the registered procedures sorted by name.
func (r *Registry) Procedures() []api.ProcedureInfo {
	out := make([]api.ProcedureInfo, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, api.ProcedureInfo{Name: p.Name, Kind: p.Kind, Input: p.Schema.Shape()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch runs env against its procedure and returns the JSON-encoded
// result.
func (r *Registry) Dispatch(ctx context.Context, env api.CallEnvelope) (json.RawMessage, error) {
	start := time.Now()
	cc := r.contexts.Build(env.Headers)

	out, err := r.dispatch(ctx, env, cc)

	for _, o := range r.observers {
		o.ObserveCall(ctx, Call{
			Procedure: env.Procedure,
			Username:  cc.Username,
			Err:       err,
			Duration:  time.Since(start),
		})
	}
	return out, err
}

func (r *Registry) dispatch(ctx context.Context, env api.CallEnvelope, cc CallContext) (json.RawMessage, error) {
	p, ok := r.procs[env.Procedure]
	if !ok {
		return nil, &NotFoundError{Procedure: env.Procedure}
	}

	var raw any
	if len(env.Input) > 0 {
		if err := json.Unmarshal(env.Input, &raw); err != nil {
			return nil, &ParseError{Err: err}
		}
	}

	input, err := p.Schema.Validate(raw)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Procedure = p.Name
		}
		return nil, err
	}

	res, err := p.Handler(ctx, cc, input)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", p.Name, err)
	}
	return b, nil
}
