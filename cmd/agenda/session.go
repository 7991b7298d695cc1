package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/agenda/internal/cli"
	"github.com/aretw0/agenda/internal/presentation/graph"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove conversations kept in the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := cli.BuildStore(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		output, _ := cmd.Flags().GetString("output")

		store, closeFn, err := cli.BuildStore(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		state, err := store.Load(cmd.Context(), sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}
		return writeState(cmd.OutOrStdout(), state, output)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("requires at least 1 session id or --all")
		}

		store, closeFn, err := cli.BuildStore(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		if all {
			if args, err = store.List(cmd.Context()); err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, sessionID := range args {
			if err := store.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

var sessionGraphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Print the dialogue phases as a Mermaid diagram",
	Long:  `Prints the dialogue state machine as a Mermaid flowchart. With a session id, the phase that session is in is highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var current graph.Phase
		if len(args) == 1 {
			store, closeFn, err := cli.BuildStore(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			state, err := store.Load(cmd.Context(), args[0])
			if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("error loading session '%s': %w", args[0], err)
			}
			current = graph.PhaseOf(state)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(current))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionGraphCmd)

	sessionInspectCmd.Flags().StringP("output", "o", "json", "Output format: json or yaml")
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}

// stateView is the printable form of a state; civil and time values are
// rendered as strings so YAML output matches the JSON one.
type stateView struct {
	Greeted              bool   `json:"greeted" yaml:"greeted"`
	Intent               string `json:"intent" yaml:"intent"`
	PendingDate          string `json:"pending_date,omitempty" yaml:"pending_date,omitempty"`
	PendingTime          string `json:"pending_time,omitempty" yaml:"pending_time,omitempty"`
	SuggestedInstant     string `json:"suggested_instant,omitempty" yaml:"suggested_instant,omitempty"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation" yaml:"awaiting_confirmation"`
	LastResponse         string `json:"last_response,omitempty" yaml:"last_response,omitempty"`
	UpdatedAt            string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func newStateView(s *domain.DialogueState) stateView {
	view := stateView{
		Greeted:              s.Greeted,
		Intent:               string(s.Intent),
		AwaitingConfirmation: s.AwaitingConfirmation,
		LastResponse:         s.LastResponse,
	}
	if s.PendingDate != nil {
		view.PendingDate = s.PendingDate.String()
	}
	if s.PendingTime != nil {
		view.PendingTime = s.PendingTime.String()
	}
	if s.SuggestedInstant != nil {
		view.SuggestedInstant = domain.FormatInstant(*s.SuggestedInstant)
	}
	if !s.UpdatedAt.IsZero() {
		view.UpdatedAt = s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return view
}

func writeState(w io.Writer, state *domain.DialogueState, format string) error {
	view := newStateView(state)
	switch format {
	case "json", "":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q: use json or yaml", format)
}
