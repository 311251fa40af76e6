// Package trace records what callcheck is doing while it runs.
//
// Spans are opened at three granularities: the driver (one per check
// command), passes (load, parse, validate, report) and files (one per .ll
// file in directory mode). Call-site events exist only at LevelDebug.
//
// Enable tracing from the command line:
//
//	callcheck check --trace=- --trace-level=phase prog.ll
//
// Implementations: Nop (disabled), StreamTracer (writes immediately),
// RingTracer (keeps the tail in memory for crash dumps) and MultiTracer.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", parentID)
//	defer span.End("")
package trace
