// Package tracing wraps OpenTelemetry so a batch can be written out as a
// span with one span event per scheduling step.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/me/mcp"

// Provider owns the tracer provider and the file spans are exported to.
// A nil or zero Provider produces no-op spans.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
	out    io.Closer
}

// Init configures a provider exporting spans as JSON to outputFile. An empty
// outputFile yields a no-op provider.
func Init(serviceName, serviceVersion, outputFile string) (*Provider, error) {
	if outputFile == "" {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return nil, err
	}
	p, err := InitWithWriter(serviceName, serviceVersion, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.out = f
	return p, nil
}

// InitWithWriter configures a provider exporting spans to w.
func InitWithWriter(serviceName, serviceVersion string, w io.Writer) (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

// InitWithExporter configures a provider using the supplied SpanExporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*Provider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	return &Provider{tp: tp, tracer: tp.Tracer(instrumentationName)}, nil
}

// Shutdown flushes pending spans and closes the output file.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var err error
	if p.tp != nil {
		err = p.tp.Shutdown(ctx)
	}
	if p.out != nil {
		if cerr := p.out.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Span wraps an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// StartSpan starts a span named name as a child of any span in ctx.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if p == nil || p.tracer == nil {
		return ctx, nil
	}
	ctx, span := p.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &Span{span: span}
}

// WithAttributes attaches all provided attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	s.span.SetAttributes(toAttributes(attrs)...)
	return s
}

// AddEvent records a point-in-time event on the span.
func (s *Span) AddEvent(name string, attrs map[string]string) {
	if s == nil {
		return
	}
	s.span.AddEvent(name, trace.WithAttributes(toAttributes(attrs)...))
}

// SetStatus records an error status on the span. If err is nil an OK status is recorded instead.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
}

// EndSpan finalises the span and records status depending on the provided error.
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	sp.SetStatus(err)
	sp.span.End()
}

func toAttributes(attrs map[string]string) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		out = append(out, attribute.String(k, v))
	}
	return out
}
