package main

import (
	"fmt"
	"os"
)

const usageText = `ragent is a terminal client for the research-agent backend.

Usage:
  ragent <command> [flags]

Commands:
  chat       run the interactive terminal UI
  sessions   list sessions
  new        create a session
  send       send a message and stream the reply
  attach     re-attach to a session's running stream
  stop       stop a session's generation
  delete     delete a session
  archive    hide a session locally
  unarchive  unhide a session
  save       toggle a session's saved flag
  config     print effective configuration
  help       show help

Flags:
  -h, --help   show help

Examples:
  ragent sessions
  ragent send --session <id> "summarize the latest results"
  ragent attach <id>
  ragent archive <id>
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
