package jsworker

import "fmt"

// SpawnError wraps a failure to start the interpreter child process.
type SpawnError struct {
	Cause error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawning worker process: %v", e.Cause) }
func (e *SpawnError) Unwrap() error { return e.Cause }

// StreamCaptureError wraps a failure to capture the child's stdin or
// stdout pipe.
type StreamCaptureError struct {
	Stream string
	Cause  error
}

func (e *StreamCaptureError) Error() string {
	return fmt.Sprintf("capturing worker %s stream: %v", e.Stream, e.Cause)
}
func (e *StreamCaptureError) Unwrap() error { return e.Cause }

// ProtocolError reports that the child exited, or its pipe closed, before
// emitting an awaited sentinel line.
type ProtocolError struct {
	Awaited     string
	ProcessDead bool
	Cause       error
}

func (e *ProtocolError) Error() string {
	if e.ProcessDead {
		return fmt.Sprintf("process no longer running, awaiting %s", e.Awaited)
	}
	return fmt.Sprintf("process exited awaiting %s: %v", e.Awaited, e.Cause)
}
func (e *ProtocolError) Unwrap() error { return e.Cause }

// WriteError wraps a failed write to the child's stdin pipe.
type WriteError struct {
	Cause error
}

func (e *WriteError) Error() string { return fmt.Sprintf("writing to worker stdin: %v", e.Cause) }
func (e *WriteError) Unwrap() error { return e.Cause }

// DeserializeError wraps a failure to parse a non-empty raw task result
// into the caller's requested type.
type DeserializeError struct {
	Cause error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("deserializing task result: %v", e.Cause)
}
func (e *DeserializeError) Unwrap() error { return e.Cause }

// TaskPanicError is surfaced by TaskHandle.Join/GetResult for any failure
// of the dispatch goroutine, whether that failure was an ordinary error
// returned by init/performTask or an actual recovered Go panic. The pool
// does not distinguish the two at the handle layer: both translate to
// "the thread backing this task failed", matching the propagation policy
// described for the worker pool's join semantics.
type TaskPanicError struct {
	Cause error
}

func (e *TaskPanicError) Error() string { return fmt.Sprintf("task thread panicked: %v", e.Cause) }
func (e *TaskPanicError) Unwrap() error { return e.Cause }
