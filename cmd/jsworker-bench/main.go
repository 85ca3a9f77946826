package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	var parser = flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)

	addCmd(parser, "warmup", "Pre-spawn workers and report handshake latency", `
Pre-spawn up to N workers against a task file and report how long it took
for all of them to complete their one-time READY handshakes.
`, &cmdWarmup{})

	addCmd(parser, "run", "Dispatch a single task and print its result", `
Dispatch one named task with a JSON-encoded payload against a task file,
and print the JSON result, re-indented (or as-is if it does not parse).
`, &cmdRun{})

	addCmd(parser, "bench", "Run a batch of tasks and report throughput", `
Dispatch a batch of identical tasks through Perform and report overall
throughput and per-task latency.
`, &cmdBench{})

	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addCmd(to interface {
	AddCommand(string, string, string, interface{}) (*flags.Command, error)
}, name, short, long string, iface interface{}) *flags.Command {
	cmd, err := to.AddCommand(name, short, long, iface)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to add %q command: %v\n", name, err)
		os.Exit(1)
	}
	return cmd
}
