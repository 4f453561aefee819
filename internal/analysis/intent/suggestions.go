package intent

import (
	"strings"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

// QuickAction is a one-click prompt offered next to the chat input.
type QuickAction struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

var genericActions = [...]QuickAction{
	{Label: "What can you help me with?", Prompt: "help"},
	{Label: "Explain security concepts", Prompt: "explain security"},
	{Label: "Best practices", Prompt: "best practices"},
	{Label: "Threat severity levels", Prompt: "explain severity levels"},
}

// Suggestions returns exactly four quick actions, tailored to the current
// threat when one is active.
func Suggestions(alerts []threat.Alert) []QuickAction {
	if len(alerts) == 0 {
		out := genericActions
		return out[:]
	}

	current := alerts[0]
	return []QuickAction{
		{Label: "Current threat: " + current.Type, Prompt: "tell me about the current threat"},
		{Label: "Help with " + current.Type, Prompt: "help with " + strings.ToLower(current.Type)},
		{Label: "How to resolve", Prompt: "how to resolve this threat"},
		{Label: "Security best practices", Prompt: "best practices"},
	}
}

// Dashboard pairs the alert list with the quick actions it implies.
type Dashboard struct {
	Threats     []threat.Alert `json:"threats"`
	Suggestions []QuickAction  `json:"suggestions"`
}

// NewDashboard builds the payload pushed to live clients when alerts change.
func NewDashboard(alerts []threat.Alert) Dashboard {
	if alerts == nil {
		alerts = []threat.Alert{}
	}
	return Dashboard{Threats: alerts, Suggestions: Suggestions(alerts)}
}
