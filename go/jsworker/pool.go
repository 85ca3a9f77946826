package jsworker

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Pool maintains up to maxWorkers persistent interpreter processes and
// multiplexes task requests onto them, spawning new workers on demand and
// blocking callers once the pool is saturated. All exported methods are
// safe for concurrent use by multiple goroutines.
type Pool struct {
	mu          sync.Mutex
	workers     []*Worker
	maxWorkers  int
	busyCounter int32
	argv        []string
	debug       bool

	metrics *poolMetrics
	log     *logrus.Entry
}

// Setup returns a Pool with the given worker capacity, the default
// interpreter command ("node"), and debug tracing off. Its metrics
// register against prometheus.DefaultRegisterer.
func Setup(maxWorkers int) *Pool {
	return SetupWithRegistry(maxWorkers, nil)
}

// SetupWithRegistry is Setup, registering the pool's metrics against reg
// instead of the default registry. Pass a fresh *prometheus.Registry when
// more than one Pool may exist in the same process (tests, in particular),
// since collector names are not pool-scoped.
func SetupWithRegistry(maxWorkers int, reg prometheus.Registerer) *Pool {
	return &Pool{
		maxWorkers: maxWorkers,
		argv:       []string{"node"},
		metrics:    newPoolMetrics(reg),
		log:        logrus.WithField("component", "jsworker_pool"),
	}
}

// SetBinary overrides the interpreter command vector, splitting command
// using POSIX shell-word rules (so e.g. `node --experimental-vm-modules`
// becomes two argv entries). The default is the single token "node".
func (p *Pool) SetBinary(command string) error {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return fmt.Errorf("parsing interpreter command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("interpreter command %q parsed to zero arguments", command)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.argv = argv
	return nil
}

// WithDebug toggles verbose protocol trace logging. Turning it on also
// raises the logrus logger to DebugLevel if it is below that. Workers
// already created keep the debug setting they were created with.
func (p *Pool) WithDebug(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.debug = on
	if on && !p.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		p.log.Logger.SetLevel(logrus.DebugLevel)
	}
}

func (p *Pool) argvSnapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.argv))
	copy(out, p.argv)
	return out
}

// acquireWorker returns an idle worker, preferring reuse over growth:
// it scans existing workers in insertion order, skipping any whose mutex
// is currently held rather than waiting on it; failing that it grows the
// pool if under capacity; failing that it busy-waits until every worker
// has gone idle and restarts the scan from the top. This is the
// documented saturation policy (see design notes: it only releases once
// ALL workers are idle, not as soon as one is).
func (p *Pool) acquireWorker() (*Worker, error) {
	for {
		p.mu.Lock()
		for _, w := range p.workers {
			if !w.mu.TryLock() {
				continue
			}
			if w.idle {
				w.idle = false
				w.mu.Unlock()
				p.mu.Unlock()
				return w, nil
			}
			w.mu.Unlock()
		}

		if len(p.workers) < p.maxWorkers {
			w := newWorker(len(p.workers)+1, p.debug)
			w.idle = false
			p.workers = append(p.workers, w)
			n := len(p.workers)
			p.mu.Unlock()
			p.metrics.setWorkers(n)
			return w, nil
		}
		p.mu.Unlock()

		for atomic.LoadInt32(&p.busyCounter) != 0 {
			runtime.Gosched()
		}
	}
}

// dispatch runs one full init+performTask exchange, translating any
// failure — an ordinary error from either step, or an actual recovered
// panic — uniformly into a *TaskPanicError, matching the propagation
// policy documented for task dispatch failures. It records the task's
// outcome and duration metrics; once init succeeds, the duration is timed
// from after the READY handshake.
func (p *Pool) dispatch(w *Worker, argv []string, filePath, command string, payload Payload) (res *string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{Cause: fmt.Errorf("panic: %v", r)}
		}
		p.metrics.observeTask(time.Since(start), err == nil)
	}()

	if initErr := w.init(argv, filePath); initErr != nil {
		return nil, &TaskPanicError{Cause: initErr}
	}
	start = time.Now()
	result, taskErr := w.performTask(command, payload)
	if taskErr != nil {
		return nil, &TaskPanicError{Cause: taskErr}
	}
	return result, nil
}

// dispatchTask is the scheduler-level dispatch primitive: it acquires a
// worker on the calling goroutine (which may block under saturation),
// marks it busy, and runs the task itself on a new goroutine. perform()
// calls this directly, so perform's own acquisition blocks its caller in
// input order; RunWorker wraps it a layer further out so that acquisition
// never blocks RunWorker's caller either.
func (p *Pool) dispatchTask(filePath, command string, payload Payload) *TaskHandle {
	argv := p.argvSnapshot()

	w, err := p.acquireWorker()
	if err != nil {
		return failedHandle(err)
	}
	atomic.AddInt32(&p.busyCounter, 1)
	p.metrics.setBusy(atomic.LoadInt32(&p.busyCounter))

	done := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			n := atomic.AddInt32(&p.busyCounter, -1)
			p.metrics.setBusy(n)
		}()
		res, err := p.dispatch(w, argv, filePath, command, payload)
		done <- taskOutcome{result: res, err: err}
	}()
	return &TaskHandle{done: done}
}

// RunWorker dispatches a single task. Unlike the scheduler-level
// primitive it wraps, it never blocks its caller: even worker acquisition
// runs on a helper goroutine, so a saturated pool cannot freeze the
// calling goroutine's other work.
func (p *Pool) RunWorker(filePath, command string, payload Payload) *TaskHandle {
	done := make(chan taskOutcome, 1)
	go func() {
		inner := p.dispatchTask(filePath, command, payload)
		res, err := inner.Join()
		done <- taskOutcome{result: res, err: err}
	}()
	return &TaskHandle{done: done}
}

// Perform dispatches each payload in turn via the scheduler's blocking
// primitive, collecting handles in input order, then joins them in that
// same order. The returned slice's i'th entry corresponds to payloads[i].
// It fails fast: the first join failure aborts the batch.
func Perform[R any](p *Pool, filePath, command string, payloads []Payload) ([]*R, error) {
	handles := make([]*TaskHandle, len(payloads))
	for i, payload := range payloads {
		handles[i] = p.dispatchTask(filePath, command, payload)
	}

	results := make([]*R, len(payloads))
	for i, h := range handles {
		r, err := GetResult[R](h)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		results[i] = r
	}
	return results, nil
}

// WarmupHandle is a join handle over a Warmup call's spawned
// initialization goroutines.
type WarmupHandle struct {
	done <-chan error
}

// Join blocks until every worker spawned by the originating Warmup call
// has completed its handshake, returning the first failure if any.
func (h *WarmupHandle) Join() error { return <-h.done }

// Warmup clamps n to the pool's remaining capacity, creates that many new
// workers, and spawns their child processes and one-time READY handshakes
// in parallel. Workers are appended to the pool immediately (so capacity
// accounting is accurate right away); the returned handle's Join waits for
// every handshake to complete.
func (p *Pool) Warmup(n int, filePath string) *WarmupHandle {
	p.mu.Lock()
	remaining := p.maxWorkers - len(p.workers)
	if n > remaining {
		n = remaining
	}
	if n < 0 {
		n = 0
	}
	newWorkers := make([]*Worker, n)
	for i := range newWorkers {
		w := newWorker(len(p.workers)+1, p.debug)
		p.workers = append(p.workers, w)
		newWorkers[i] = w
	}
	argv := make([]string, len(p.argv))
	copy(argv, p.argv)
	total := len(p.workers)
	p.mu.Unlock()
	p.metrics.setWorkers(total)

	done := make(chan error, 1)
	go func() {
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i, w := range newWorkers {
			wg.Add(1)
			go func(i int, w *Worker) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[i] = &TaskPanicError{Cause: fmt.Errorf("panic: %v", r)}
					}
				}()
				if err := w.init(argv, filePath); err != nil {
					errs[i] = &TaskPanicError{Cause: err}
				}
			}(i, w)
		}
		wg.Wait()

		for _, e := range errs {
			if e != nil {
				done <- e
				return
			}
		}
		done <- nil
	}()
	return &WarmupHandle{done: done}
}
