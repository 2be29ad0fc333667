package main

import (
	"context"
	"flag"
	"fmt"
	"io"
)

type NewCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func NewNewCommand(stdout, stderr io.Writer, newApp appFactory) *NewCommand {
	return &NewCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *NewCommand) Run(args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	session, err := app.dir.Create(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, session.ID)
	return nil
}
