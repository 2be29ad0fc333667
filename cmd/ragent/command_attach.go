package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/hao-ai-lab/research-agent-sub004/internal/stream"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

type AttachCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func NewAttachCommand(stdout, stderr io.Writer, newApp appFactory) *AttachCommand {
	return &AttachCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *AttachCommand) Run(args []string) error {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("attach requires a session id")
	}
	id := fs.Arg(0)

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	snap, err := app.dir.Select(ctx, id)
	if err != nil {
		return err
	}
	if snap == nil || snap.Status != types.StreamStatusRunning {
		fmt.Fprintln(c.stdout, "no active stream")
		return nil
	}

	// replay the already-accumulated text, then echo live deltas
	replay := snap.Text
	if replay == "" {
		for _, part := range snap.Parts {
			if part.Type == types.PartText {
				replay += part.Content
			}
		}
	}
	fmt.Fprint(c.stdout, replay)
	app.ctrl.SetEffectHook(func(eff stream.Effect) {
		fmt.Fprint(c.stdout, eff.TextDelta)
	})
	if err := app.ctrl.Attach(ctx, id, snap); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout)
	return nil
}
