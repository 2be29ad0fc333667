package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

type StopCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func NewStopCommand(stdout, stderr io.Writer, newApp appFactory) *StopCommand {
	return &StopCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *StopCommand) Run(args []string) error {
	fs := flag.NewFlagSet("stop", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("stop requires a session id")
	}
	id := fs.Arg(0)

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.client.StopSession(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "stopped")
	return nil
}
