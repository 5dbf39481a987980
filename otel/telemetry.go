package otel

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	traceNoop "go.opentelemetry.io/otel/trace/noop"
)

const scopeName = "github.com/hugolhafner/go-consumer"

// Telemetry holds all OpenTelemetry instruments for the go-consumer library
// When no providers are configured, all instruments are noops with zero overhead
type Telemetry struct {
	Tracer     trace.Tracer
	Propagator propagation.TextMapPropagator

	// Consumer metrics
	MessagesConsumed metric.Int64Counter
	PollDuration     metric.Float64Histogram

	// Commit metrics
	Commits         metric.Int64Counter
	CommitDuration  metric.Float64Histogram
	RecoveryActions metric.Int64Counter

	// Stream state metrics
	StreamsActive metric.Int64UpDownCounter
}

// NewTelemetry creates a Telemetry instance from the given providers.
// all providers are optional and defaulted to noops if nil
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, prop propagation.TextMapPropagator) (
	*Telemetry, error,
) {
	if tp == nil {
		tp = traceNoop.NewTracerProvider()
	}
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	if prop == nil {
		prop = propagation.TraceContext{}
	}

	tracer := tp.Tracer(scopeName)
	meter := mp.Meter(scopeName)

	messagesConsumed, err := meter.Int64Counter(
		"messaging.consumer.messages",
		metric.WithDescription("Records consumed"),
	)
	if err != nil {
		return nil, err
	}

	pollDuration, err := meter.Float64Histogram(
		"consumer.poll.duration",
		metric.WithDescription("Time per Poll() call"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	commits, err := meter.Int64Counter(
		"consumer.commits",
		metric.WithDescription("Commit attempts by outcome"),
	)
	if err != nil {
		return nil, err
	}

	commitDuration, err := meter.Float64Histogram(
		"consumer.commit.duration",
		metric.WithDescription("Time per commit round trip"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recoveryActions, err := meter.Int64Counter(
		"consumer.commit_recovery.actions",
		metric.WithDescription("Commit recovery decisions"),
	)
	if err != nil {
		return nil, err
	}

	streamsActive, err := meter.Int64UpDownCounter(
		"consumer.streams.active",
		metric.WithDescription("Partition streams waiting on records"),
	)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Tracer:           tracer,
		Propagator:       prop,
		MessagesConsumed: messagesConsumed,
		PollDuration:     pollDuration,
		Commits:          commits,
		CommitDuration:   commitDuration,
		RecoveryActions:  recoveryActions,
		StreamsActive:    streamsActive,
	}, nil
}

// Noop returns a Telemetry instance with all noop instruments
func Noop() *Telemetry {
	t, _ := NewTelemetry(nil, nil, nil)
	return t
}
