package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"callcheck/internal/trace"
)

type tracingState struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
}

// active tracer of the running command; one command runs per process
var tracing *tracingState

func addTraceFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", trace.DefaultRingSize, "events kept in the ring buffer")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
}

// setupTracing reads the trace flags and stores the tracer in the command context.
func setupTracing(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()

	output, err := pf.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := pf.GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeat, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return err
	}
	// вывод указан, а режим по умолчанию: пишем и в поток, и в кольцо
	if output != "" && !pf.Changed("trace-mode") {
		mode = trace.ModeBoth
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  heartbeat,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	tracing = &tracingState{
		tracer:    tracer,
		heartbeat: trace.StartHeartbeat(tracer, heartbeat),
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// closeTracing stops the heartbeat and flushes the tracer. Safe to call twice.
func closeTracing(cmd *cobra.Command) {
	if tracing == nil {
		return
	}
	st := tracing
	tracing = nil
	st.heartbeat.Stop()
	if err := st.tracer.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
	}
}

// dumpTraceOnPanic writes the ring buffer to stderr and re-panics.
func dumpTraceOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	if tracing != nil {
		if ring := trace.FindRing(tracing.tracer); ring != nil {
			fmt.Fprintf(os.Stderr, "callcheck: panic: %v\n--- trace (last events, %s) ---\n", r, time.Now().Format(time.RFC3339))
			_ = ring.Dump(os.Stderr, trace.FormatText)
			fmt.Fprintln(os.Stderr, "--- end trace ---")
		}
	}
	os.Stderr.Write(debug.Stack())
	panic(r)
}
