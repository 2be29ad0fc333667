package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

type SessionsCommand struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func NewSessionsCommand(stdout, stderr io.Writer, newApp appFactory) *SessionsCommand {
	return &SessionsCommand{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func (c *SessionsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	all := fs.Bool("all", false, "include archived sessions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.dir.Load(ctx); err != nil {
		return err
	}

	var sessions []types.SessionSummary
	if *all {
		sessions, err = app.client.ListSessions(ctx)
		if err != nil {
			return err
		}
	} else {
		sessions = app.dir.Sessions()
	}

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tFLAGS")
	for _, session := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", session.ID, session.Title, session.MessageCount, c.flags(app, session.ID))
	}
	return w.Flush()
}

func (c *SessionsCommand) flags(app *app, id string) string {
	out := ""
	if app.dir.IsSaved(id) {
		out += "saved "
	}
	if app.dir.IsArchived(id) {
		out += "archived"
	}
	return out
}
