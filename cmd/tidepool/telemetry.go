package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/tidepool/pkg/observability/xmetrics"
)

// telemetry 进程内的 OTel SDK。
// 跨度只用于生成 trace id 并传播到日志和响应头；计数在退出时汇总到日志。
type telemetry struct {
	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	observer xmetrics.Observer
}

func newTelemetry() (*telemetry, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", "tidepool"),
		attribute.String("service.version", Version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	observer, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName(instrumentationName),
		xmetrics.WithTracerProvider(tp),
		xmetrics.WithMeterProvider(mp),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("tidepool: create observer: %w", err),
			tp.Shutdown(context.Background()), mp.Shutdown(context.Background()))
	}
	return &telemetry{tp: tp, mp: mp, reader: reader, observer: observer}, nil
}

// totals 按 component.operation.status 汇总的操作计数，按键排序
func (t *telemetry) totals(ctx context.Context) ([]slog.Attr, error) {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("tidepool: collect metrics: %w", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				component, _ := dp.Attributes.Value("component")
				operation, _ := dp.Attributes.Value("operation")
				status, _ := dp.Attributes.Value("status")
				counts[component.AsString()+"."+operation.AsString()+"."+status.AsString()] += dp.Value
			}
		}
	}

	attrs := make([]slog.Attr, 0, len(counts))
	for k, v := range counts {
		attrs = append(attrs, slog.Int64(k, v))
	}
	slices.SortFunc(attrs, func(a, b slog.Attr) int { return cmp.Compare(a.Key, b.Key) })
	return attrs, nil
}

// Shutdown 关闭两个 provider，可重复调用
func (t *telemetry) Shutdown(ctx context.Context) error {
	err := t.tp.Shutdown(ctx)
	if merr := t.mp.Shutdown(ctx); merr != nil && !errors.Is(merr, sdkmetric.ErrReaderShutdown) {
		err = errors.Join(err, merr)
	}
	return err
}
