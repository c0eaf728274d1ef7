package procedure

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

// placeholderTodoID is returned for every todo; nothing is stored yet.
const placeholderTodoID = "1"

func createTodo(log *zap.Logger) rpc.TypedHandler[api.TodoInput, api.TodoResult] {
	return func(ctx context.Context, cc rpc.CallContext, in api.TodoInput) (api.TodoResult, error) {
		log.Info("todo creator", zap.String("username", cc.Username))
		log.Info("todo",
			zap.String("title", in.Title),
			zap.String("description", in.Description),
		)

		// TODO: persist the todo once a store is wired in and return its real id.
		return api.TodoResult{ID: placeholderTodoID}, nil
	}
}
