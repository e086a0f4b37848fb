// Command calltrace compiles and runs programs with every method call site
// traced.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

const usageText = `Usage: calltrace <command> [flags] <file>

Commands:
  run      compile a source file with tracing and run it
  dump     print the compiled graph of a source file
  compile  encode the uninstrumented graph of a source file
  exec     run an encoded graph
  serve    run a trace collector writing to sqlite
  query    print events from a trace database

Run 'calltrace <command> -h' for the flags of a command.
`

// exitError ends the process with code once its output has been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// app holds the streams a command writes to.
type app struct {
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	a := &app{out: stdout, errOut: stderr}
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return &exitError{code: 2}
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run":
		return a.runCmd(ctx, rest)
	case "dump":
		return a.dumpCmd(ctx, rest)
	case "compile":
		return a.compileCmd(ctx, rest)
	case "exec":
		return a.execCmd(ctx, rest)
	case "serve":
		return a.serveCmd(ctx, rest)
	case "query":
		return a.queryCmd(ctx, rest)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usageText)
		return nil
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usageText)
	return &exitError{code: 2}
}
