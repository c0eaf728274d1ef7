package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/api"
	"github.com/jmehdipour/typed-rpc/internal/metrics"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

// headersOf flattens request headers to their first value.
func headersOf(r *http.Request) map[string]string {
	h := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			h[k] = v[0]
		}
	}
	return h
}

func logFailure(log *zap.Logger, procedure string, err error) {
	if rpc.CodeOf(err) == api.CodeInternalError {
		log.Error("call failed", zap.String("procedure", procedure), zap.Error(err))
		return
	}
	log.Debug("call rejected", zap.String("procedure", procedure), zap.Error(err))
}

func callHandler(reg *rpc.Registry, m *metrics.Metrics, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		procedure := c.Param("procedure")

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.CallResponse{
				Error: rpc.ErrorBody(procedure, &rpc.ParseError{Err: err}),
			})
		}

		headers := headersOf(c.Request())
		log.Debug("auth header",
			zap.String("procedure", procedure),
			zap.String("authorization", rpc.Authorization(headers)),
		)

		m.BatchSize.Observe(1)
		out, err := reg.Dispatch(c.Request().Context(), api.CallEnvelope{
			Procedure: procedure,
			Input:     body,
			Headers:   headers,
		})
		if err != nil {
			logFailure(log, procedure, err)
			return c.JSON(rpc.HTTPStatus(err), api.CallResponse{Error: rpc.ErrorBody(procedure, err)})
		}

		return c.JSON(http.StatusOK, api.CallResponse{Result: out})
	}
}

// batchHandler runs every call of a batch concurrently and answers in
// request order, one result or error per call.
func batchHandler(reg *rpc.Registry, m *metrics.Metrics, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var calls []api.BatchCall
		if err := json.NewDecoder(c.Request().Body).Decode(&calls); err != nil {
			return c.JSON(http.StatusBadRequest, api.CallResponse{
				Error: rpc.ErrorBody("", &rpc.ParseError{Err: err}),
			})
		}
		if len(calls) == 0 || len(calls) > api.MaxBatchCalls {
			return c.JSON(http.StatusBadRequest, api.CallResponse{Error: &api.ErrorBody{
				Code:    api.CodeBadRequest,
				Message: fmt.Sprintf("batch must hold 1 to %d calls, got %d", api.MaxBatchCalls, len(calls)),
			}})
		}

		m.BatchSize.Observe(float64(len(calls)))
		headers := headersOf(c.Request())
		log.Debug("auth header",
			zap.Int("calls", len(calls)),
			zap.String("authorization", rpc.Authorization(headers)),
		)
		ctx := c.Request().Context()

		results := iter.Map(calls, func(call *api.BatchCall) api.BatchResult {
			out, err := reg.Dispatch(ctx, api.CallEnvelope{
				Procedure: call.Procedure,
				Input:     call.Input,
				Headers:   headers,
			})
			if err != nil {
				logFailure(log, call.Procedure, err)
				return api.BatchResult{ID: call.ID, Error: rpc.ErrorBody(call.Procedure, err)}
			}
			return api.BatchResult{ID: call.ID, Result: out}
		})

		return c.JSON(http.StatusOK, results)
	}
}

func catalogueHandler(reg *rpc.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, reg.Procedures())
	}
}
