package main

import (
	"flag"
	"io"

	"github.com/hao-ai-lab/research-agent-sub004/internal/tui"
)

type ChatCommand struct {
	stderr io.Writer
	newApp appFactory
}

func NewChatCommand(stderr io.Writer, newApp appFactory) *ChatCommand {
	return &ChatCommand{
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *ChatCommand) Run(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	return tui.Run(app.ctrl, app.dir)
}
