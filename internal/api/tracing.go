package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/mautops/practica-gin/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Tracing OpenTelemetry 追踪
type Tracing struct {
	provider    *tracesdk.TracerProvider
	serviceName string
}

// InitTracing 初始化 OpenTelemetry 追踪,未启用时返回空实现
func InitTracing(cfg config.TracingConfig) (*Tracing, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = ServiceName
	}
	t := &Tracing{serviceName: serviceName}
	if !cfg.Enabled {
		return t, nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	t.provider = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
	)

	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Enabled 是否启用了导出
func (t *Tracing) Enabled() bool {
	return t != nil && t.provider != nil
}

// Middleware 追踪中间件
func (t *Tracing) Middleware() gin.HandlerFunc {
	return otelgin.Middleware(t.serviceName)
}

// Shutdown 关闭追踪并刷新未导出的 span
func (t *Tracing) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
