package main

import (
	"os"

	"github.com/aretw0/agenda/internal/presentation/tui"
	"github.com/aretw0/agenda/pkg/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive conversation. Type "exit" or press Ctrl+D to leave.

With --json, each input line is {"message": "..."} (or plain text) and each
reply is written as one JSON object, for scripting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		newSession, _ := cmd.Flags().GetBool("new")
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		if newSession {
			sessionID = uuid.NewString()
		}

		ctx, stop := signalContext()
		defer stop()

		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		opts := []runner.Option{
			runner.WithSessionID(sessionID),
			runner.WithLogger(logger),
		}

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		switch {
		case jsonMode:
			opts = append(opts, runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)))
		case interactive && !plain:
			tui.PrintBanner(os.Stdout)
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				width = 80
			}
			opts = append(opts,
				runner.WithIntro("Session "+sessionID+". Try 'Book a call tomorrow at 3pm'."),
				runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout,
					runner.WithTextHandlerRenderer(tui.NewRenderer(width)),
				)),
			)
		default:
			opts = append(opts, runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithPrompt(""))))
		}

		return runner.NewRunner(opts...).Run(ctx, app.Assistant)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", runner.DefaultSessionID, "Conversation id to resume")
	chatCmd.Flags().Bool("new", false, "Start a fresh conversation with a random id")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
