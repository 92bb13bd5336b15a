package rdf

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/geoknoesis/rdf-canon/rdf"

func startCanonicalizeSpan(ctx context.Context, opts CanonOptions, quads int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "rdf.Canonicalize",
		trace.WithAttributes(
			attribute.String("rdf.algorithm", string(opts.Algorithm)),
			attribute.String("rdf.hash_algorithm", string(opts.HashAlgorithm)),
			attribute.Int("rdf.input_quads", quads),
		))
}

func endSpan(span trace.Span, sched *scheduler, err error) {
	span.SetAttributes(
		attribute.Int64("rdf.steps", int64(sched.steps)),
		attribute.Int("rdf.stack_hops", sched.hops),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
