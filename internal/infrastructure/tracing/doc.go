/*
Package tracing provides lightweight request tracing for the molx backend.

Each HTTP request gets a trace id (a prefixed ULID, req_*) that is returned
in the X-Trace-ID header and attached to every log line the request
produces. Viewer operations started by a request run in child spans, so a
slow Open can be attributed to the request that triggered it.

# Usage

	tracer := tracing.New("molx", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "viewer.save", func(ctx context.Context) error {
		_, err := app.Save(ctx)
		return err
	})

# Trace Format

- X-Trace-ID: identifier for the entire request flow
- X-Span-ID: identifier for the current operation

Spans are buffered (1000) and written by a single collector goroutine.
Completed spans log at debug; failed spans log at warn.
*/
package tracing
