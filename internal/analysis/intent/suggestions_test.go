package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

func TestSuggestionsWithoutThreats(t *testing.T) {
	first := Suggestions(nil)
	require.Len(t, first, 4)
	assert.Equal(t, "help", first[0].Prompt)
	assert.Equal(t, "explain severity levels", first[3].Prompt)

	first[0].Prompt = "mutated"
	second := Suggestions([]threat.Alert{})
	assert.Equal(t, "help", second[0].Prompt)
}

func TestSuggestionsForCurrentThreat(t *testing.T) {
	got := Suggestions([]threat.Alert{{ID: "x", Type: "SQL Injection", Severity: threat.SeverityCritical}})

	require.Len(t, got, 4)
	assert.Equal(t, "Current threat: SQL Injection", got[0].Label)
	assert.Equal(t, "tell me about the current threat", got[0].Prompt)
	assert.Equal(t, "Help with SQL Injection", got[1].Label)
	assert.Contains(t, got[1].Prompt, "help with sql injection")
	assert.Equal(t, "how to resolve this threat", got[2].Prompt)
	assert.Equal(t, "best practices", got[3].Prompt)
}
