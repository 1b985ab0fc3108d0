// Package handlerwrapper adapts typed event handlers to watermill.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/pitwall/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is one outgoing event produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// TopicMetadataKey records the topic an outgoing message was produced for.
const TopicMetadataKey = "topic"

// WrapTransformingTyped decodes the incoming JSON payload into T, runs handler
// and publishes every Result. Undecodable payloads are logged and acked so a
// poison message is not redelivered forever.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	handler func(context.Context, *T) ([]Result, error),
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))
		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.id", msg.UUID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Discarding undecodable message",
				attr.CorrelationIDFromMsg(msg),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			span.SetStatus(codes.Error, "decode failed")
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		for _, r := range results {
			out, err := NewMessage(ctx, r)
			if err != nil {
				return fmt.Errorf("%s: %w", handlerName, err)
			}
			if err := publisher.Publish(r.Topic, out); err != nil {
				return fmt.Errorf("%s: publish %s: %w", handlerName, r.Topic, err)
			}
		}
		return nil
	}
}

// NewMessage encodes a Result, carrying the correlation ID from ctx.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", r.Topic, err)
	}
	out := message.NewMessage(watermill.NewUUID(), body)
	for k, v := range r.Metadata {
		out.Metadata.Set(k, v)
	}
	out.Metadata.Set(TopicMetadataKey, r.Topic)
	if id := attr.CorrelationID(ctx); id != "" {
		middleware.SetCorrelationID(id, out)
	}
	return out, nil
}
