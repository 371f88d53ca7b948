package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Status(ctx context.Context) error
	Add(ctx context.Context, path string) error
	Retry(ctx context.Context) error
	Clear(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the VaultSync CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current queue status (from statusFn) and accepts:
//
//	help            show available commands
//	status | s      show pending and failed entries
//	add <path>      encrypt a file and enqueue it for upload
//	retry           reset permanently failed entries for another run
//	clear           remove completed entries
//	delete <id>     remove one entry (deferred if mid-upload)
//	sync            request a sync pass now
//	exit | quit     leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("vs> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: (s)tatus, add <path>, retry, clear, delete <id>, sync, exit")

		case "s", "status":
			_ = a.Status(ctx)

		case "add":
			if len(args) == 0 {
				printlnFn("Usage: add <path>")
				continue
			}
			_ = a.Add(ctx, args[0])

		case "retry":
			_ = a.Retry(ctx)

		case "clear":
			_ = a.Clear(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "sync":
			_ = a.Sync(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
