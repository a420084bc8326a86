package tracing

import (
	"github.com/luno/jettison/errors"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	traceIDKey = "trace_id"
	spanIDKey  = "span_id"
)

// Marshal encodes the opentelemetry SpanContext as a protobuf struct for storage
// alongside an event.
func Marshal(span trace.SpanContext) ([]byte, error) {
	st, err := structpb.NewStruct(map[string]interface{}{
		traceIDKey: span.TraceID().String(),
		spanIDKey:  span.SpanID().String(),
	})
	if err != nil {
		return nil, err
	}

	return proto.Marshal(st)
}

// Unmarshal decodes the protobuf byte slice and reconstructs it into an opentelemetry SpanContext.
func Unmarshal(data []byte) (trace.SpanContext, error) {
	var st structpb.Struct
	err := proto.Unmarshal(data, &st)
	if err != nil {
		return trace.SpanContext{}, err
	}

	fields := st.GetFields()
	if fields[traceIDKey] == nil || fields[spanIDKey] == nil {
		return trace.SpanContext{}, errors.New("incomplete trace")
	}

	traceID, err := trace.TraceIDFromHex(fields[traceIDKey].GetStringValue())
	if err != nil {
		return trace.SpanContext{}, err
	}

	spanID, err := trace.SpanIDFromHex(fields[spanIDKey].GetStringValue())
	if err != nil {
		return trace.SpanContext{}, err
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}), nil
}
