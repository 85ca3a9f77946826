package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/flowkit/jsworker/go/jsworker"
)

type cmdBench struct {
	Binary   string `long:"binary" default:"node" description:"Interpreter command, shell-word split"`
	Workers  int    `long:"workers" default:"4" description:"Pool capacity"`
	TaskFile string `long:"task-file" required:"true" description:"Path to the task file to load"`
	Command  string `long:"command" required:"true" description:"Task name to invoke repeatedly"`
	Count    int    `long:"count" default:"100" description:"Number of tasks to dispatch"`
}

func (cmd cmdBench) Execute(_ []string) error {
	pool := jsworker.Setup(cmd.Workers)
	if err := pool.SetBinary(cmd.Binary); err != nil {
		return fmt.Errorf("setting interpreter binary: %w", err)
	}

	payloads := make([]jsworker.Payload, cmd.Count)
	for i := range payloads {
		payloads[i] = jsworker.NoPayload{}
	}

	start := time.Now()
	_, err := jsworker.Perform[struct{}](pool, cmd.TaskFile, cmd.Command, payloads)
	elapsed := time.Since(start)
	if err != nil {
		color.Red("bench of %d tasks failed: %v", cmd.Count, err)
		return err
	}

	perTask := elapsed / time.Duration(cmd.Count)
	color.Green("%d tasks in %s (%s/task, %.1f tasks/sec)",
		cmd.Count, elapsed, perTask, float64(cmd.Count)/elapsed.Seconds())
	return nil
}
