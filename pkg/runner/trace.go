package runner

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/codegame/pkg/model"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/vango-dev/codegame/pkg/runner"

func defaultTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// startTurn opens the span covering one GetAction turn.
func (r *Runner) startTurn(ctx context.Context, view model.PlayerView) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "codegame.turn",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("codegame.tick", int(view.Tick)),
			attribute.Int("codegame.player_id", int(view.MyID)),
			attribute.Int("codegame.units", len(view.Units)),
		),
	)
}

// endTurn records the outcome of a turn and ends its span.
func (r *Runner) endTurn(span trace.Span, orders int, err error) {
	span.SetAttributes(
		attribute.Int64("codegame.debug_messages", r.debug.takeSent()),
		attribute.Int("codegame.orders", orders),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
