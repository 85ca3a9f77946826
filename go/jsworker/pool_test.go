package jsworker

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, maxWorkers int) *Pool {
	t.Helper()
	p := SetupWithRegistry(maxWorkers, prometheus.NewRegistry())
	require.NoError(t, p.SetBinary(fakeInterpreterCommand()))
	return p
}

func TestPerformFib2PreservesOrderAndCapsWorkers(t *testing.T) {
	p := newTestPool(t, 2)

	payloads, err := Payloads(10, 20, 30, 40)
	require.NoError(t, err)

	results, err := Perform[uint64](p, "task.js", "fib2", payloads)
	require.NoError(t, err)
	require.Len(t, results, 4)

	want := []uint64{55, 6765, 832040, 102334155}
	for i, w := range want {
		require.NotNil(t, results[i])
		require.Equal(t, w, *results[i])
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	require.LessOrEqual(t, len(p.workers), 2)
}

func TestPerformPingReusesSingleWorker(t *testing.T) {
	p := newTestPool(t, 1)

	payloads, err := Payloads(nil, nil)
	require.NoError(t, err)

	results, err := Perform[struct{}](p, "task.js", "ping", payloads)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Nil(t, results[0])
	require.Nil(t, results[1])

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.workers, 1)
}

func TestRunWorkerSingleTask(t *testing.T) {
	p := newTestPool(t, 2)

	handle := p.RunWorker("task.js", "fib2", Inner{Value: uint32(40)})
	result, err := GetResult[uint32](handle)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.EqualValues(t, 102334155, *result)
}

func TestPerformFailsWhenInterpreterCannotSpawn(t *testing.T) {
	p := SetupWithRegistry(2, prometheus.NewRegistry())
	require.NoError(t, p.SetBinary("/definitely/not/a/real/interpreter-binary"))

	payloads, err := Payloads(40)
	require.NoError(t, err)

	_, err = Perform[uint64](p, "task.js", "fib2", payloads)
	require.Error(t, err)
}

func TestPerformSurfacesTaskFailureAsThreadPanic(t *testing.T) {
	p := newTestPool(t, 1)

	payloads, err := Payloads(40)
	require.NoError(t, err)

	_, err = Perform[struct{}](p, "task.js", "error", payloads)
	require.Error(t, err)

	var panicErr *TaskPanicError
	require.ErrorAs(t, err, &panicErr)

	p.mu.Lock()
	w := p.workers[0]
	p.mu.Unlock()
	require.False(t, w.alive())
}

func TestWarmupLeavesWorkersReadyAndIdleWithoutRunningACommand(t *testing.T) {
	p := newTestPool(t, 2)

	require.NoError(t, p.Warmup(2, "task.js").Join())

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.workers, 2)
	for _, w := range p.workers {
		w.mu.Lock()
		require.True(t, w.ready)
		require.True(t, w.idle)
		w.mu.Unlock()
	}
}

func TestWarmupClampsToRemainingCapacity(t *testing.T) {
	p := newTestPool(t, 2)
	require.NoError(t, p.Warmup(5, "task.js").Join())

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.workers, 2)
}

func TestBigResultSpansMultipleResultChunks(t *testing.T) {
	p := newTestPool(t, 1)

	handle := p.RunWorker("task.js", "big", Inner{Value: 2500})
	result, err := GetResult[string](handle)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, *result, 2500)
	require.True(t, strings.Count(*result, "x") == 2500)
}
