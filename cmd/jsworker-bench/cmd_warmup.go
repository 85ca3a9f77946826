package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/flowkit/jsworker/go/jsworker"
)

type cmdWarmup struct {
	Binary   string `long:"binary" default:"node" description:"Interpreter command, shell-word split"`
	Workers  int    `long:"workers" default:"4" description:"Number of workers to pre-spawn"`
	TaskFile string `long:"task-file" required:"true" description:"Path to the task file to load into each worker"`
	Debug    bool   `long:"debug" description:"Enable verbose protocol trace logging"`
}

func (cmd cmdWarmup) Execute(_ []string) error {
	pool := jsworker.Setup(cmd.Workers)
	if err := pool.SetBinary(cmd.Binary); err != nil {
		return fmt.Errorf("setting interpreter binary: %w", err)
	}
	pool.WithDebug(cmd.Debug)

	start := time.Now()
	if err := pool.Warmup(cmd.Workers, cmd.TaskFile).Join(); err != nil {
		color.Red("warmup failed: %v", err)
		return err
	}

	color.Green("warmed up %d workers in %s", cmd.Workers, time.Since(start))
	return nil
}
