package client_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/client"
	"github.com/jmehdipour/typed-rpc/internal/config"
	httpSrv "github.com/jmehdipour/typed-rpc/internal/http"
	"github.com/jmehdipour/typed-rpc/internal/procedure"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
	"github.com/jmehdipour/typed-rpc/internal/token"
)

const secret = "test-secret"

func startServer(t *testing.T) (*httptest.Server, *observer.ObservedLogs, *token.Signer) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	signer, err := token.NewSigner(secret)
	require.NoError(t, err)

	reg := rpc.NewRegistry(rpc.WithAdminCredential(rpc.DefaultAdminCredential))
	require.NoError(t, procedure.Register(reg, procedure.Deps{Logger: log, Signer: signer}))
	reg.Seal()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: secret, AdminCredential: rpc.DefaultAdminCredential}}
	srv := httptest.NewServer(httpSrv.NewServer(cfg, httpSrv.Deps{Registry: reg, Logger: log}).Handler())
	t.Cleanup(srv.Close)
	return srv, logs, signer
}

func TestEndToEnd_CreateTodo(t *testing.T) {
	srv, logs, _ := startServer(t)
	c := client.New(srv.URL)

	res, err := c.CreateTodo(context.Background(), api.TodoInput{
		Title:       "Go to gym",
		Description: "As a man, avoid the drama and hit the gym",
	})
	require.NoError(t, err)
	assert.Equal(t, api.TodoResult{ID: "1"}, res)

	creators := logs.FilterMessage("todo creator").All()
	require.Len(t, creators, 1)
	assert.Equal(t, "Admin", creators[0].ContextMap()["username"])
}

func TestEndToEnd_SignUp(t *testing.T) {
	srv, _, signer := startServer(t)
	c := client.New(srv.URL)

	res, err := c.SignUp(context.Background(), api.SignUpInput{Email: "a@b.com", Password: "p"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := signer.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "p", claims["password"])
}

func TestEndToEnd_GuestWithoutCredential(t *testing.T) {
	srv, logs, _ := startServer(t)
	c := client.New(srv.URL, client.WithHeader("Authorization", "Bearer 124"))

	_, err := c.CreateTodo(context.Background(), api.TodoInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	creators := logs.FilterMessage("todo creator").All()
	require.Len(t, creators, 1)
	assert.Equal(t, "Guest", creators[0].ContextMap()["username"])
}

func TestEndToEnd_Errors(t *testing.T) {
	srv, _, _ := startServer(t)
	c := client.New(srv.URL, client.WithBatchWait(0))

	err := c.Call(context.Background(), api.ProcedureCreateTodo, map[string]string{"title": "only"}, nil)
	var re *client.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 400, re.Status)
	assert.Equal(t, api.CodeBadRequest, re.Code)
	assert.Equal(t, "description", re.Field)

	err = c.Call(context.Background(), "deleteTodo", map[string]string{}, nil)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 404, re.Status)
	assert.Equal(t, api.CodeNotFound, re.Code)
}

func TestEndToEnd_Batched(t *testing.T) {
	srv, logs, signer := startServer(t)
	c := client.New(srv.URL, client.WithBatchWait(time.Minute), client.WithMaxBatch(3))

	var (
		wg     sync.WaitGroup
		todo   api.TodoResult
		signup api.SignUpResult
		errs   = make([]error, 3)
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		todo, errs[0] = c.CreateTodo(context.Background(), api.TodoInput{Title: "t", Description: "d"})
	}()
	go func() {
		defer wg.Done()
		signup, errs[1] = c.SignUp(context.Background(), api.SignUpInput{Email: "a@b.com", Password: "p"})
	}()
	go func() {
		defer wg.Done()
		_, errs[2] = c.SignUp(context.Background(), api.SignUpInput{Email: "a@b.com"})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, "1", todo.ID)
	claims, err := signer.Parse(signup.Token)
	require.NoError(t, err)
	assert.Equal(t, "p", claims["password"])
	assert.True(t, client.IsCode(errs[2], api.CodeBadRequest))

	assert.Equal(t, 1, logs.FilterMessage("todo creator").Len())
}

func TestEndToEnd_OversizedMaxBatch(t *testing.T) {
	srv, _, _ := startServer(t)
	c := client.New(srv.URL, client.WithBatchWait(20*time.Millisecond), client.WithMaxBatch(1000))

	n := api.MaxBatchCalls + 1
	var wg sync.WaitGroup
	errs := make([]error, n)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.CreateTodo(context.Background(), api.TodoInput{Title: "t", Description: "d"})
			errs[i], ids[i] = err, res.ID
		}()
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i], "call %d", i)
		assert.Equal(t, "1", ids[i])
	}
}

func TestEndToEnd_Catalogue(t *testing.T) {
	srv, _, _ := startServer(t)
	c := client.New(srv.URL)

	infos, err := c.Procedures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []api.ProcedureInfo{
		{Name: api.ProcedureCreateTodo, Kind: api.KindMutation, Input: api.TodoInputShape},
		{Name: api.ProcedureSignUp, Kind: api.KindMutation, Input: api.SignUpInputShape},
	}, infos)
}
