package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/agenda/pkg/domain"
)

// Phase is a coarse node of the dialogue state machine.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
	PhaseConfirming Phase = "awaiting_confirmation"
)

// Edge is a labelled transition between phases.
type Edge struct {
	From, To Phase
	Label    string
}

// Phases lists the nodes in render order.
var Phases = []Phase{PhaseInit, PhaseIdle, PhaseCollecting, PhaseConfirming}

// Edges describes every transition a single turn can make.
var Edges = []Edge{
	{PhaseInit, PhaseIdle, "greeting"},
	{PhaseIdle, PhaseIdle, "unknown"},
	{PhaseIdle, PhaseCollecting, "date or time only"},
	{PhaseIdle, PhaseConfirming, "date and time"},
	{PhaseCollecting, PhaseCollecting, "still missing"},
	{PhaseCollecting, PhaseConfirming, "slot proposed"},
	{PhaseConfirming, PhaseConfirming, "unclear / booking failed"},
	{PhaseConfirming, PhaseIdle, "accept"},
	{PhaseConfirming, PhaseCollecting, "reject"},
}

// PhaseOf maps a persisted state onto its phase.
func PhaseOf(state *domain.DialogueState) Phase {
	switch {
	case state == nil || !state.Greeted:
		return PhaseInit
	case state.AwaitingConfirmation:
		return PhaseConfirming
	case state.BookingInProgress():
		return PhaseCollecting
	default:
		return PhaseIdle
	}
}

// GenerateMermaid produces a Mermaid flowchart of the dialogue phases.
// Shapes:
// - Init: ((Circle))
// - Confirming: {Rhombus}
// - Default: [Rectangle]
// When current is set, that phase is highlighted.
func GenerateMermaid(current Phase) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, p := range Phases {
		opener, closer := "[", "]"
		switch p {
		case PhaseInit:
			opener, closer = "((", "))"
		case PhaseConfirming:
			opener, closer = "{", "}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(string(p)), opener, p, closer))
	}

	for _, e := range Edges {
		label := strings.ReplaceAll(e.Label, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n",
			sanitizeMermaidID(string(e.From)), label, sanitizeMermaidID(string(e.To))))
	}

	if current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(current))))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
