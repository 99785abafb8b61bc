package xtrace_test

import (
	"context"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/tidepool/pkg/context/xctx"
	"github.com/omeyang/tidepool/pkg/observability/xtrace"
)

const (
	traceID = "0af7651916cd43dd8448eb211c80319c"
	spanID  = "b7ad6b7169203331"
)

func TestParseTraceparent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want xtrace.Info
		ok   bool
	}{
		{"valid", "00-" + traceID + "-" + spanID + "-01", xtrace.Info{TraceID: traceID, SpanID: spanID, Flags: "01"}, true},
		{"uppercase", "00-0AF7651916CD43DD8448EB211C80319C-B7AD6B7169203331-01", xtrace.Info{TraceID: traceID, SpanID: spanID, Flags: "01"}, true},
		{"future version with extra field", "01-" + traceID + "-" + spanID + "-00-extra", xtrace.Info{TraceID: traceID, SpanID: spanID, Flags: "00"}, true},
		{"version ff", "ff-" + traceID + "-" + spanID + "-01", xtrace.Info{}, false},
		{"version 00 with extra", "00-" + traceID + "-" + spanID + "-01-x", xtrace.Info{}, false},
		{"zero trace id", "00-00000000000000000000000000000000-" + spanID + "-01", xtrace.Info{}, false},
		{"zero span id", "00-" + traceID + "-0000000000000000-01", xtrace.Info{}, false},
		{"bad hex", "00-" + traceID + "-" + spanID + "-zz", xtrace.Info{}, false},
		{"short", "00-abc-def-01", xtrace.Info{}, false},
		{"empty", "", xtrace.Info{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := xtrace.ParseTraceparent(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfo_Traceparent(t *testing.T) {
	info := xtrace.Info{TraceID: traceID, SpanID: spanID}
	assert.Equal(t, "00-"+traceID+"-"+spanID+"-00", info.Traceparent())

	info.Flags = "01"
	parsed, ok := xtrace.ParseTraceparent(info.Traceparent())
	assert.True(t, ok)
	assert.Equal(t, info, parsed)

	assert.Empty(t, xtrace.Info{TraceID: traceID}.Traceparent())
}

func TestExtract(t *testing.T) {
	h := http.Header{}
	h.Set("traceparent", "00-"+traceID+"-"+spanID+"-01")
	h.Set(xtrace.HeaderTraceID, "ffffffffffffffffffffffffffffffff")
	assert.Equal(t, xtrace.Info{TraceID: traceID, SpanID: spanID, Flags: "01"}, xtrace.Extract(h),
		"traceparent wins over custom headers")

	m := textproto.MIMEHeader{}
	m.Set(xtrace.HeaderTraceID, " "+traceID+" ")
	m.Set(xtrace.HeaderSpanID, "not-hex")
	assert.Equal(t, xtrace.Info{TraceID: traceID}, xtrace.Extract(m))

	assert.Equal(t, xtrace.Info{}, xtrace.Extract(nil))
	assert.Equal(t, xtrace.Info{}, xtrace.Extract(http.Header{}))
}

func TestContextRoundTrip(t *testing.T) {
	info := xtrace.Info{TraceID: traceID, SpanID: spanID, Flags: "01"}
	ctx := xtrace.ContextWith(context.Background(), info)

	assert.Equal(t, traceID, xctx.TraceID(ctx))
	assert.Equal(t, info, xtrace.FromContext(ctx))

	// 空字段不覆盖已有值
	ctx = xtrace.ContextWith(ctx, xtrace.Info{SpanID: "1111111111111111"})
	assert.Equal(t, traceID, xctx.TraceID(ctx))
	assert.Equal(t, "1111111111111111", xctx.SpanID(ctx))
}
