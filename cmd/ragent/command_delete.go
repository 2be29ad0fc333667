package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

type DeleteCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func NewDeleteCommand(stdout, stderr io.Writer, newApp appFactory) *DeleteCommand {
	return &DeleteCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *DeleteCommand) Run(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("delete requires a session id")
	}
	id := fs.Arg(0)

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.dir.Delete(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "deleted")
	return nil
}
