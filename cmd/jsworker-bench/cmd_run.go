package main

import (
	"encoding/json"
	"fmt"

	"github.com/flowkit/jsworker/go/jsworker"
)

type cmdRun struct {
	Binary   string `long:"binary" default:"node" description:"Interpreter command, shell-word split"`
	TaskFile string `long:"task-file" required:"true" description:"Path to the task file to load"`
	Command  string `long:"command" required:"true" description:"Task name to invoke"`
	Payload  string `long:"payload" default:"null" description:"Raw JSON payload to send, or the literal null"`
}

func (cmd cmdRun) Execute(_ []string) error {
	pool := jsworker.Setup(1)
	if err := pool.SetBinary(cmd.Binary); err != nil {
		return fmt.Errorf("setting interpreter binary: %w", err)
	}

	handle := pool.RunWorker(cmd.TaskFile, cmd.Command, jsworker.Raw(cmd.Payload))
	result, err := jsworker.GetResult[json.RawMessage](handle)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("(no result)")
		return nil
	}

	var pretty interface{}
	if err := json.Unmarshal(*result, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Println(string(*result))
	}
	return nil
}
