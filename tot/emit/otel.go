package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into an immediately-ended OpenTelemetry
// span, named after event.Msg and carrying RunID/State/NodeID/Meta as
// attributes. It does not own a TracerProvider or exporter — the caller
// wires one up via otel.SetTracerProvider, consistent with the module's
// "the core emits counters/spans, the collector is external" stance.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an OTelEmitter using tracer for span creation.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (e *OTelEmitter) Emit(event Event) {
	_, span := e.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", event.RunID),
		attribute.String("state", event.State),
		attribute.String("node_id", event.NodeID),
	)
	for k, v := range event.Meta {
		span.SetAttributes(attribute.String(k, toString(v)))
	}
	if errVal, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, toString(errVal))
	}
}

func (e *OTelEmitter) EmitBatch(events []Event) {
	for _, ev := range events {
		e.Emit(ev)
	}
}

func (e *OTelEmitter) Flush() {}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
