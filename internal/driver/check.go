package driver

import (
	"context"
	"fmt"
	"time"

	"callcheck/internal/diag"
	"callcheck/internal/llvmir"
	"callcheck/internal/observ"
	"callcheck/internal/pipeline"
	"callcheck/internal/sigcheck"
	"callcheck/internal/source"
	"callcheck/internal/trace"
)

// Options control a check run.
type Options struct {
	MaxDiagnostics   int
	ReportUnresolved bool
	EnableTimings    bool
	// Cache is consulted before parsing; nil disables caching.
	Cache *ResultCache
	// Progress receives per-file stage events.
	Progress pipeline.ProgressSink
	// Reporter sees diagnostics as they are produced, in call-site order.
	Reporter diag.Reporter
	// Jobs bounds CheckDir parallelism; <= 0 means GOMAXPROCS.
	Jobs int
}

// Result is the outcome of checking one IR file.
type Result struct {
	Path      string
	File      *source.File // nil when the file could not be loaded
	Parsed    bool
	Bag       *diag.Bag
	Functions []sigcheck.Signature
	Stats     sigcheck.Stats
	Summary   llvmir.Summary
	Timer     *observ.Timer
	Cached    bool
}

// HasErrors reports whether the file produced any error diagnostic.
func (r *Result) HasErrors() bool {
	return r != nil && r.Bag != nil && r.Bag.HasErrors()
}

// Check loads, parses and validates a single .ll file. Findings are returned
// in Result.Bag; the error is reserved for cancellation.
func Check(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	timer := newTimer(opts)

	loadIdx := timer.Begin(observ.PhaseLoad)
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "load", trace.CurrentSpan(ctx))
	pipeline.Notify(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageLoad, Status: pipeline.StatusWorking})
	fileID, err := fs.Load(path)
	span.End("")
	timer.End(loadIdx, "")
	if err != nil {
		return loadFailure(path, err, opts), nil
	}
	return checkFile(ctx, fs.Get(fileID), opts, timer)
}

// CheckSource checks IR held in memory; name labels diagnostics.
func CheckSource(ctx context.Context, name string, content []byte, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	return checkFile(ctx, fs.Get(fs.AddVirtual(name, content)), opts, newTimer(opts))
}

func newTimer(opts Options) *observ.Timer {
	if !opts.EnableTimings {
		return nil
	}
	return observ.NewTimer()
}

func loadFailure(path string, err error, opts Options) *Result {
	bag := diag.NewBag(opts.MaxDiagnostics)
	d := diag.NewError(diag.IOLoadFileError, source.Location{Path: path}, "failed to load file: "+err.Error())
	bag.Add(d)
	report(opts.Reporter, d)
	pipeline.Notify(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageLoad, Status: pipeline.StatusError, Err: err})
	return &Result{Path: path, Bag: bag}
}

func report(r diag.Reporter, d diag.Diagnostic) {
	if r != nil {
		r.Report(d)
	}
}

func checkFile(ctx context.Context, file *source.File, opts Options, timer *observ.Timer) (*Result, error) {
	started := time.Now()
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	res := &Result{
		Path:  file.Path,
		File:  file,
		Bag:   diag.NewBag(opts.MaxDiagnostics),
		Timer: timer,
	}

	key := resultKey(Digest(file.Hash), file.Path, opts)
	if payload, ok := opts.Cache.Get(key); ok {
		restore(res, payload, opts.Reporter)
		appendTimings(res)
		trace.Point(tracer, trace.ScopePass, "cache-hit", file.Path, parent)
		pipeline.Notify(opts.Progress, pipeline.Event{
			File: file.Path, Stage: pipeline.StageReport, Status: pipeline.StatusDone,
			Elapsed: time.Since(started), Findings: res.Stats.Findings, Cached: true,
		})
		return res, nil
	}

	// разбор
	pipeline.Notify(opts.Progress, pipeline.Event{File: file.Path, Stage: pipeline.StageParse, Status: pipeline.StatusWorking})
	parseIdx := timer.Begin(observ.PhaseParse)
	span := trace.Begin(tracer, trace.ScopePass, "parse", parent)
	m, err := llvmir.Parse(file.Path, file.Content)
	if err != nil {
		span.End("error")
		timer.End(parseIdx, "error")
		d := diag.NewError(diag.ParseIRError, source.Location{Path: file.Path}, err.Error())
		res.Bag.Add(d)
		report(opts.Reporter, d)
		pipeline.Notify(opts.Progress, pipeline.Event{File: file.Path, Stage: pipeline.StageParse, Status: pipeline.StatusError, Err: err})
		finish(res, opts, key)
		return res, nil
	}
	res.Parsed = true
	res.Summary = llvmir.Summarize(m)
	span.WithExtra("functions", fmt.Sprint(res.Summary.Defined+res.Summary.Declared)).
		WithExtra("calls", fmt.Sprint(res.Summary.Calls)).
		End("")
	timer.End(parseIdx, fmt.Sprintf("calls=%d", res.Summary.Calls))

	// проверка вызовов
	pipeline.Notify(opts.Progress, pipeline.Event{File: file.Path, Stage: pipeline.StageValidate, Status: pipeline.StatusWorking})
	validateIdx := timer.Begin(observ.PhaseValidate)
	span = trace.Begin(tracer, trace.ScopePass, "validate", parent)
	reporter := diag.MultiReporter{diag.BagReporter{Bag: res.Bag}, opts.Reporter}
	v := sigcheck.NewValidator(sigcheck.NewRegistry(), reporter, sigcheck.Options{ReportUnresolved: opts.ReportUnresolved})
	if tracer.Level().ShouldEmit(trace.ScopeCallSite) {
		sites := llvmir.CallSites(m, file.Path)
		err = v.Run(ctx, func(yield func(sigcheck.CallSite) bool) {
			for cs := range sites {
				name := "<indirect>"
				if cs.Callee != nil {
					name = cs.Callee.Name
				}
				trace.Point(tracer, trace.ScopeCallSite, "call:"+name, cs.Loc.String(), span.ID())
				if !yield(cs) {
					return
				}
			}
		})
	} else {
		err = v.Run(ctx, llvmir.CallSites(m, file.Path))
	}
	res.Stats = v.Stats()
	span.WithExtra("findings", fmt.Sprint(res.Stats.Findings)).End("")
	timer.End(validateIdx, fmt.Sprintf("findings=%d", res.Stats.Findings))
	if err != nil {
		return res, err
	}

	reportIdx := timer.Begin(observ.PhaseRender)
	res.Functions = v.Registry().Snapshot()
	timer.End(reportIdx, fmt.Sprintf("functions=%d", len(res.Functions)))

	finish(res, opts, key)
	pipeline.Notify(opts.Progress, pipeline.Event{
		File: file.Path, Stage: pipeline.StageReport, Status: pipeline.StatusDone,
		Elapsed: time.Since(started), Findings: res.Stats.Findings,
	})
	return res, nil
}

// finish stores the result in the cache and appends timings. Results that
// overflowed the diagnostic limit are not cached: the drop count is not
// part of the payload.
func finish(res *Result, opts Options, key Digest) {
	if opts.Cache != nil && res.Bag.Dropped() == 0 {
		payload := &DiskPayload{
			Parsed:      res.Parsed,
			Diagnostics: append([]diag.Diagnostic(nil), res.Bag.Items()...),
			Functions:   res.Functions,
			Stats:       res.Stats,
			Summary:     res.Summary,
		}
		// кэш вспомогательный: ошибка записи не должна ломать проверку
		_ = opts.Cache.Put(key, payload)
	}
	appendTimings(res)
}

// appendTimings adds the timer report of res, if timings are on.
func appendTimings(res *Result) {
	if res.Timer == nil {
		return
	}
	rep := res.Timer.Report()
	appendTimingDiagnostic(res.Bag, timingPayload{Path: res.Path, TotalMS: rep.TotalMS, Phases: rep.Phases})
}

func restore(res *Result, payload *DiskPayload, r diag.Reporter) {
	res.Cached = true
	res.Parsed = payload.Parsed
	res.Functions = payload.Functions
	res.Stats = payload.Stats
	res.Summary = payload.Summary
	for _, d := range payload.Diagnostics {
		res.Bag.Add(d)
		report(r, d)
	}
}
