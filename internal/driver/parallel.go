package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"callcheck/internal/diag"
	"callcheck/internal/observ"
	"callcheck/internal/pipeline"
	"callcheck/internal/source"
	"callcheck/internal/trace"
)

// IRExt is the extension of textual LLVM IR files.
const IRExt = ".ll"

// DirResult holds per-file results in path order.
type DirResult struct {
	Dir     string
	FileSet *source.FileSet
	Files   []*Result
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *DirResult) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, f := range r.Files {
		if f.HasErrors() {
			return true
		}
	}
	return false
}

// Timer merges the per-file timers; nil when timings were off.
func (r *DirResult) Timer() *observ.Timer {
	var total *observ.Timer
	for _, f := range r.Files {
		if f == nil || f.Timer == nil {
			continue
		}
		if total == nil {
			total = observ.NewTimer()
		}
		total.Merge(f.Timer)
	}
	return total
}

// ListIRFiles возвращает отсортированный список всех *.ll файлов в директории.
func ListIRFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, IRExt) {
			files = append(files, filepath.ToSlash(filepath.Clean(path)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	sort.Strings(files)
	return files, nil
}

// CheckDir checks every .ll file under dir in parallel. Each file gets its
// own registry; results come back in path order regardless of scheduling.
func CheckDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := ListIRFiles(dir)
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSetWithBase(dir)
	out := &DirResult{Dir: dir, FileSet: fileSet, Files: make([]*Result, len(files))}
	if len(files) == 0 {
		return out, nil
	}

	// FileSet не потокобезопасен: грузим всё до запуска горутин
	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		pipeline.Notify(opts.Progress, pipeline.Event{File: path, Stage: pipeline.StageLoad, Status: pipeline.StatusQueued})
		id, loadErr := fileSet.Load(path)
		if loadErr != nil {
			loadErrors[path] = loadErr
			continue
		}
		fileIDs[path] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Reporter != nil {
		opts.Reporter = &lockedReporter{r: opts.Reporter}
	}

	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if loadErr, failed := loadErrors[path]; failed {
				out.Files[i] = loadFailure(path, loadErr, opts)
				return nil
			}

			span := trace.Begin(tracer, trace.ScopeFile, "file:"+path, parent)
			fctx := trace.WithSpan(gctx, span)
			// индекс i уникален для горутины, мьютекс не нужен
			res, checkErr := checkFile(fctx, fileSet.Get(fileIDs[path]), opts, newTimer(opts))
			out.Files[i] = res
			span.WithExtra("errors", boolString(res.HasErrors())).End("")
			return checkErr
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// lockedReporter serializes reports coming from concurrent file checks.
type lockedReporter struct {
	mu sync.Mutex
	r  diag.Reporter
}

func (l *lockedReporter) Report(d diag.Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Report(d)
}
