package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hao-ai-lab/research-agent-sub004/internal/stream"
)

type SendCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func NewSendCommand(stdout, stderr io.Writer, newApp appFactory) *SendCommand {
	return &SendCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *SendCommand) Run(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	sessionID := fs.String("session", "", "target session id (defaults to the first visible session)")
	mode := fs.String("mode", "", "chat mode for this message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	content := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if content == "" {
		return errors.New("send requires message content")
	}

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	target := strings.TrimSpace(*sessionID)
	if target == "" {
		if err := app.dir.Load(ctx); err != nil {
			return err
		}
		sessions := app.dir.Sessions()
		if len(sessions) == 0 {
			return errors.New("no sessions; create one with `ragent new`")
		}
		target = sessions[0].ID
	}
	if *mode != "" {
		app.ctrl.SetMode(*mode)
	}

	app.ctrl.SetEffectHook(func(eff stream.Effect) {
		fmt.Fprint(c.stdout, eff.TextDelta)
	})
	if err := app.ctrl.Send(ctx, target, content); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout)
	return nil
}
