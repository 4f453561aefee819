package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "threats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeed(t *testing.T) {
	path := writeSeed(t, `
alerts:
  - id: t2
    type: Ransomware
    severity: Critical
    ip: 10.0.0.12
    description: files renamed to .locked
    timestamp: 2024-05-01T10:00:00Z
  - type: Port Scan
    severity: low
`)

	alerts, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "t2", alerts[0].ID)
	assert.Equal(t, threat.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, 2024, alerts[0].Timestamp.Year())
	assert.Equal(t, threat.SeverityLow, alerts[1].Severity)

	feed := threat.NewFeed(alerts)
	assert.Equal(t, "Ransomware", feed.Snapshot()[0].Type)
}

func TestLoadSeedErrors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read threat seed")

	_, err = LoadSeed(writeSeed(t, "alerts: [oops"))
	assert.ErrorContains(t, err, "failed to parse threat seed")

	_, err = LoadSeed(writeSeed(t, "alerts:\n  - type: Malware\n    severity: extreme\n"))
	assert.ErrorContains(t, err, "threat seed entry 0")
}
