package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// Core implements zapcore.Core to record error logs as OpenTelemetry spans.
type Core struct {
	zapcore.LevelEnabler
	tracer trace.Tracer
	fields []zapcore.Field
}

// NewCore creates a core that records entries at or above ErrorLevel.
func NewCore() zapcore.Core {
	return &Core{
		LevelEnabler: zapcore.ErrorLevel,
		tracer:       otel.Tracer("logs"),
	}
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	_, span := c.tracer.Start(context.Background(), "error."+errorCategory(ent))
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("error.message", ent.Message),
		attribute.String("error.level", ent.Level.String()),
		attribute.String("error.caller", ent.Caller.String()),
		attribute.String("error.logger", ent.LoggerName),
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range append(c.fields, fields...) {
		field.AddTo(enc)
	}
	for key, value := range enc.Fields {
		attrs = append(attrs, attribute.String(key, toString(value)))
	}

	span.SetAttributes(attrs...)
	return nil
}

func (c *Core) Sync() error {
	return nil
}

// errorCategory groups an entry by the component that logged it.
func errorCategory(ent zapcore.Entry) string {
	switch {
	case strings.Contains(ent.Caller.Function, "storage"):
		return "storage"
	case strings.Contains(ent.Caller.Function, "classifier"):
		return "classifier"
	case strings.Contains(ent.Caller.Function, "moderation"):
		return "moderation"
	case strings.Contains(ent.Caller.Function, "rest"):
		return "rest"
	case strings.Contains(ent.Caller.Function, "setup"):
		return "setup"
	default:
		return "application"
	}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
