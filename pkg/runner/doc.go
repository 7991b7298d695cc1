/*
Package runner implements the interactive chat loop of the assistant.

It is the bridge between a Turner (usually *agenda.Assistant) and a terminal
or pipe. Input and output go through a pluggable IOHandler, so the same loop
serves people (TextHandler, optionally rendering markdown) and programs
(JSONHandler, one JSON object per line).

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, assistant); err != nil {
		log.Fatal(err)
	}

The loop ends on EOF, on "exit" or "quit", and on SIGINT or SIGTERM.
*/
package runner
