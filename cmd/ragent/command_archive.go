package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

type archiveAction string

const (
	archiveActionArchive   archiveAction = "archive"
	archiveActionUnarchive archiveAction = "unarchive"
	archiveActionSave      archiveAction = "save"
)

// ArchiveCommand covers the three local overlay mutations; they share
// argument handling and differ only in the directory call.
type ArchiveCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
	action archiveAction
}

func NewArchiveCommand(stdout, stderr io.Writer, newApp appFactory, action archiveAction) *ArchiveCommand {
	return &ArchiveCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
		action: action,
	}
}

func (c *ArchiveCommand) Run(args []string) error {
	fs := flag.NewFlagSet(string(c.action), flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%s requires a session id", c.action)
	}
	id := fs.Arg(0)

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	// rehydrate the overlays so this mutation does not clobber them
	if err := app.dir.Load(context.Background()); err != nil {
		return err
	}

	switch c.action {
	case archiveActionArchive:
		app.dir.Archive(id)
	case archiveActionUnarchive:
		app.dir.Unarchive(id)
	case archiveActionSave:
		app.dir.ToggleSaved(id)
		if app.dir.IsSaved(id) {
			fmt.Fprintln(c.stdout, "saved")
		} else {
			fmt.Fprintln(c.stdout, "unsaved")
		}
		return nil
	default:
		return errors.New("unknown action")
	}
	fmt.Fprintln(c.stdout, string(c.action)+"d")
	return nil
}
