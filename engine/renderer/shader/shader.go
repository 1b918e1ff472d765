package shader

import (
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by Load when no candidate path could be read.
var ErrNotFound = errors.New("shader not found")

// Result is the outcome of a candidate search.
type Result struct {
	// Found is true when one of the candidates was read.
	Found bool
	// Path is the candidate that was read.
	Path string
	// Source is the file contents.
	Source []byte
}

// loader holds the settings of one Load call.
type loader struct {
	fsys fs.FS
}

// probePool is shared by every Load call. Its workers live for the life of the process.
var probePool = sync.OnceValue(func() worker.DynamicWorkerPool {
	return worker.NewDynamicWorkerPool(4, 64, time.Second)
})

// probe is the read outcome of a single candidate.
type probe struct {
	source []byte
	err    error
}

// Load reads the first candidate path that can be read, in the order given. Candidates are
// probed concurrently on a worker pool; the earliest successful candidate in list order wins
// regardless of which read finishes first.
//
// Parameters:
//   - paths: candidate paths in priority order
//   - options: functional options to configure the search
//
// Returns:
//   - Result: the winning path and its contents
//   - error: ErrNotFound wrapping the error of the last candidate if none could be read
func Load(paths []string, options ...LoaderOption) (Result, error) {
	l := &loader{}
	for _, opt := range options {
		opt(l)
	}
	if len(paths) == 0 {
		return Result{}, errors.Wrap(ErrNotFound, "no candidate paths")
	}

	probes := make([]probe, len(paths))
	pool := probePool()

	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		idx, path := i, p
		pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				src, err := l.read(path)
				probes[idx] = probe{source: src, err: err}
				return nil, err
			},
		})
	}
	wg.Wait()

	var last error
	for i, pr := range probes {
		if pr.err == nil {
			return Result{Found: true, Path: paths[i], Source: pr.source}, nil
		}
		common.Logger().Debug("shader candidate failed", "path", paths[i], "err", pr.err)
		last = pr.err
	}
	return Result{}, errors.Mark(errors.Wrapf(last, "shader not found after %d candidates", len(paths)), ErrNotFound)
}

func (l *loader) read(path string) ([]byte, error) {
	var src []byte
	var err error
	if l.fsys != nil {
		src, err = fs.ReadFile(l.fsys, path)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %q", path)
	}
	if len(src) == 0 {
		return nil, errors.Newf("shader %q is empty", path)
	}
	return src, nil
}
