package jsworker

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"
)

// workerState is the per-worker protocol state machine (§4.3). It exists
// mainly for tracing; the idle/ready flags below are what acquisition and
// the task dispatch path actually synchronize on, matching the source's
// informal flag-based encoding.
type workerState int32

const (
	stateUnspawned workerState = iota
	stateSpawned
	stateReady
	stateBusyPayload
	stateBusyExec
	stateDead
)

func (s workerState) String() string {
	switch s {
	case stateUnspawned:
		return "unspawned"
	case stateSpawned:
		return "spawned"
	case stateReady:
		return "ready"
	case stateBusyPayload:
		return "busy-payload"
	case stateBusyExec:
		return "busy-exec"
	case stateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Worker owns one persistent interpreter child process and the protocol
// exchange over its stdin/stdout. At most one task executes on a worker at
// a time: acquireWorker only hands out a worker whose idle flag is set, and
// clears that flag under mu before returning it. mu itself is held only
// briefly, to read or update state, idle and ready, not across a task's
// protocol exchange.
type Worker struct {
	id    int
	debug bool

	mu    sync.Mutex
	state workerState
	idle  bool
	ready bool

	initOnce sync.Once
	initErr  error

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	dead    chan struct{}
	waitErr error

	log *logrus.Entry
}

func newWorker(id int, debug bool) *Worker {
	return &Worker{
		id:    id,
		debug: debug,
		idle:  true,
		dead:  make(chan struct{}),
		log:   logrus.WithField("worker_id", id),
	}
}

// init spawns the interpreter child on its first call and waits for its
// one-time READY handshake; later calls are no-ops that return the first
// call's result. argv is the interpreter command vector (e.g. ["node"]);
// filePath is appended as its final argument.
func (w *Worker) init(argv []string, filePath string) error {
	w.initOnce.Do(func() {
		w.initErr = w.spawn(argv, filePath)
	})
	return w.initErr
}

func (w *Worker) spawn(argv []string, filePath string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty interpreter command")
	}

	args := make([]string, 0, len(argv))
	args = append(args, argv[1:]...)
	args = append(args, filePath)

	cmd := exec.Command(argv[0], args...)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = workerSysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &StreamCaptureError{Stream: "stdin", Cause: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &StreamCaptureError{Stream: "stdout", Cause: err}
	}

	w.log.WithField("args", cmd.Args).Debug("starting worker process")
	if err := cmd.Start(); err != nil {
		return &SpawnError{Cause: err}
	}

	w.mu.Lock()
	w.state = stateSpawned
	w.mu.Unlock()

	w.cmd = cmd
	w.stdin = stdin
	w.stdout = bufio.NewReader(stdout)

	go w.waitLoop()

	if _, err := w.awaitSentinel(sentinelReady); err != nil {
		return err
	}

	w.mu.Lock()
	w.ready = true
	w.state = stateReady
	w.mu.Unlock()

	w.log.Debug("worker ready")
	return nil
}

// waitLoop blocks for the child's exit in the background so alive() can
// report process liveness without itself blocking: Go offers no
// non-blocking poll of a *os.Process, so a watcher goroutine plus a
// closed-on-exit channel stands in for one.
func (w *Worker) waitLoop() {
	w.waitErr = w.cmd.Wait()
	close(w.dead)
}

func (w *Worker) alive() bool {
	select {
	case <-w.dead:
		return false
	default:
		return true
	}
}

func (w *Worker) setState(s workerState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) awaitSentinel(want sentinel) (string, error) {
	trace := func(line string) {
		if w.debug {
			w.log.WithField("line", line).Debug("worker trace")
		}
	}
	buf, err := awaitSentinel(w.stdout, want, w.alive, trace)
	if err != nil {
		w.setState(stateDead)
		return "", err
	}
	return buf, nil
}

// performTask serializes one request/response exchange: an optional
// payload phase (skipped when payload encodes to the null token) followed
// by the exec phase. idle is false for the whole call, including the
// protocol exchange, and is restored on every return path.
func (w *Worker) performTask(command string, payload Payload) (*string, error) {
	w.mu.Lock()
	w.idle = false
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.idle = true
		w.mu.Unlock()
	}()

	w.mu.Lock()
	ready := w.ready
	w.mu.Unlock()
	if !ready {
		return nil, fmt.Errorf("performTask called before worker is ready")
	}
	if !w.alive() {
		w.setState(stateDead)
		return nil, &ProtocolError{Awaited: "task dispatch", ProcessDead: true}
	}

	text, err := payload.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	if text != "null" {
		w.setState(stateBusyPayload)
		if err := writePayloadChunks(w.stdin, text); err != nil {
			w.setState(stateDead)
			return nil, &WriteError{Cause: err}
		}
		if _, err := w.awaitSentinel(sentinelPayloadOK); err != nil {
			return nil, err
		}
	}

	w.setState(stateBusyExec)
	if _, err := fmt.Fprintf(w.stdin, "CMD: %s\n", command); err != nil {
		w.setState(stateDead)
		return nil, &WriteError{Cause: err}
	}

	raw, err := w.awaitSentinel(sentinelOK)
	if err != nil {
		return nil, err
	}
	w.setState(stateReady)

	if raw == "" {
		return nil, nil
	}
	return &raw, nil
}
