package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/internal/audit"
	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

// listCallsHandler serves the audit trail to the Admin identity only.
func listCallsHandler(contexts rpc.ContextBuilder, repo audit.CallsRepository, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if contexts.Build(headersOf(c.Request())).Username != rpc.UsernameAdmin {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		calls, err := repo.ListRecent(
			c.Request().Context(),
			strings.TrimSpace(c.QueryParam("procedure")),
			strings.TrimSpace(c.QueryParam("username")),
			limit,
			offset,
		)
		if err != nil {
			log.Error("clickhouse list failed",
				zap.String("procedure", c.QueryParam("procedure")),
				zap.Error(err),
			)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(calls),
			"results": calls,
		})
	}
}
