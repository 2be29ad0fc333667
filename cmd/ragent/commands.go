package main

import (
	"fmt"
	"io"
	"os"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout io.Writer
	stderr io.Writer
	newApp appFactory
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout: stdout,
		stderr: stderr,
		newApp: newApp,
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"chat":      NewChatCommand(wiring.stderr, wiring.newApp),
		"sessions":  NewSessionsCommand(wiring.stdout, wiring.stderr, wiring.newApp),
		"new":       NewNewCommand(wiring.stdout, wiring.stderr, wiring.newApp),
		"send":      NewSendCommand(wiring.stdout, wiring.stderr, wiring.newApp),
		"attach":    NewAttachCommand(wiring.stdout, wiring.stderr, wiring.newApp),
		"stop":      NewStopCommand(wiring.stdout, wiring.stderr, wiring.newApp),
		"delete":    NewDeleteCommand(wiring.stdout, wiring.stderr, wiring.newApp),
		"archive":   NewArchiveCommand(wiring.stdout, wiring.stderr, wiring.newApp, archiveActionArchive),
		"unarchive": NewArchiveCommand(wiring.stdout, wiring.stderr, wiring.newApp, archiveActionUnarchive),
		"save":      NewArchiveCommand(wiring.stdout, wiring.stderr, wiring.newApp, archiveActionSave),
		"config":    NewConfigCommand(wiring.stdout, wiring.stderr),
	}
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}
