// Package jsworker implements a persistent worker-process pool that
// amortizes the startup cost of an external script interpreter. Each
// worker is a long-lived child process, spawned once and driven through
// many task invocations over a line-framed request/response protocol on
// its standard streams, instead of being re-spawned per call.
package jsworker
