package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// httpStatusClientError and httpStatusServerError split responses into
// success and the two error classes.
const (
	httpStatusClientError = 400
	httpStatusServerError = 500
)

// statusWriter wraps [http.ResponseWriter] to capture the status code.
type statusWriter struct {
	http.ResponseWriter

	statusCode int
	written    bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if !sw.written {
		sw.statusCode = http.StatusOK
		sw.written = true
	}

	return sw.ResponseWriter.Write(buf) //nolint:wrapcheck // transparent passthrough.
}

// HTTPMiddleware returns an [http.Handler] that creates a server span per
// request and, when red is non-nil, records RED metrics for it. Span and
// metric names use the matched route pattern ("GET /slots/{key}") so that
// path parameters do not explode cardinality.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		started := time.Now()

		// Extract W3C traceparent/tracestate/baggage from incoming headers.
		parentCtx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parentCtx, hr.Method+" "+hr.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				attribute.String("http.target", hr.URL.Path),
			),
		)
		defer span.End()

		done := red.TrackInflight(ctx, hr.Method)
		defer done()

		sw := &statusWriter{ResponseWriter: rw, statusCode: http.StatusOK}
		req := hr.WithContext(ctx)
		next.ServeHTTP(sw, req)

		op := routeName(req)
		span.SetName(op)
		span.SetAttributes(
			semconv.HTTPResponseStatusCode(sw.statusCode),
			attribute.String("http.route", req.Pattern),
		)

		status := StatusOK

		switch {
		case sw.statusCode >= httpStatusServerError:
			span.SetStatus(codes.Error, http.StatusText(sw.statusCode))

			status = StatusError
		case sw.statusCode >= httpStatusClientError:
			status = StatusError
		}

		red.RecordRequest(ctx, op, status, time.Since(started))
	})
}

// routeName returns the mux pattern the request matched, or the raw method
// and path when it matched none.
func routeName(hr *http.Request) string {
	if hr.Pattern != "" {
		return hr.Pattern
	}

	return hr.Method + " " + hr.URL.Path
}
