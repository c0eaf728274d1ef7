package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jmehdipour/typed-rpc/internal/rpc"
)

func TestMetrics_ObserveCall(t *testing.T) {
	m := New()

	m.ObserveCall(context.Background(), rpc.Call{Procedure: "createTodo", Username: "Admin", Duration: time.Millisecond})
	m.ObserveCall(context.Background(), rpc.Call{Procedure: "nope", Err: &rpc.NotFoundError{Procedure: "nope"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("createTodo", "Admin", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("nope", "", "NOT_FOUND")))
}

func TestMetrics_MustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	New().MustRegister(reg)

	assert.Panics(t, func() { New().MustRegister(reg) })
}
