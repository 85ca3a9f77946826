package jsworker

import (
	"encoding/json"
	"sync"
)

// taskOutcome is what a dispatch goroutine hands back to its TaskHandle:
// either a raw result string (nil meaning "no result") or an error.
type taskOutcome struct {
	result *string
	err    error
}

// TaskHandle is a typed wrapper around an in-flight task. It yields the
// raw result text once, and caches it for subsequent calls.
type TaskHandle struct {
	done <-chan taskOutcome

	once sync.Once
	res  *string
	err  error
}

func failedHandle(err error) *TaskHandle {
	ch := make(chan taskOutcome, 1)
	ch <- taskOutcome{err: &TaskPanicError{Cause: err}}
	return &TaskHandle{done: ch}
}

// Join blocks until the task completes, returning its raw result text (nil
// if the task produced none) or the error that caused its dispatch
// goroutine to fail.
func (h *TaskHandle) Join() (*string, error) {
	h.once.Do(func() {
		out := <-h.done
		h.res, h.err = out.result, out.err
	})
	return h.res, h.err
}

// GetResult joins h and deserializes its raw result into R. It returns nil
// without error if the task produced no result, and a DeserializeError if
// a non-empty result fails to parse as R.
func GetResult[R any](h *TaskHandle) (*R, error) {
	raw, err := h.Join()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var v R
	if err := json.Unmarshal([]byte(*raw), &v); err != nil {
		return nil, &DeserializeError{Cause: err}
	}
	return &v, nil
}
