package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
)

func TestTelemetry_SpansAndTotals(t *testing.T) {
	tel, err := newTelemetry()
	require.NoError(t, err)

	ctx, task := xmetrics.Start(context.Background(), tel.observer, xmetrics.SpanOptions{
		Component: "conn",
		Operation: "task",
	})
	traceID := xctx.TraceID(ctx)
	assert.Len(t, traceID, 32, "sdk spans carry real ids")

	reqCtx, req := xmetrics.Start(ctx, tel.observer, xmetrics.SpanOptions{
		Component: "static",
		Operation: "request",
		Kind:      xmetrics.KindServer,
	})
	assert.Equal(t, traceID, xctx.TraceID(reqCtx))
	assert.NotEqual(t, xctx.SpanID(ctx), xctx.SpanID(reqCtx))
	req.End(xmetrics.Result{})
	task.End(xmetrics.Result{Err: errors.New("boom")})

	totals, err := tel.totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []slog.Attr{
		slog.Int64("conn.task.error", 1),
		slog.Int64("static.request.ok", 1),
	}, totals)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}
