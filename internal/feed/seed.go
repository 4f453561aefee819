package feed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

type seedFile struct {
	Alerts []seedAlert `yaml:"alerts"`
}

type seedAlert struct {
	ID          string    `yaml:"id"`
	Type        string    `yaml:"type"`
	Severity    string    `yaml:"severity"`
	IP          string    `yaml:"ip"`
	Description string    `yaml:"description"`
	Timestamp   time.Time `yaml:"timestamp"`
}

// LoadSeed reads the alerts the feed starts with from a YAML file. Alerts are
// listed the way the dashboard shows them, newest first.
func LoadSeed(path string) ([]threat.Alert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read threat seed: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse threat seed: %w", err)
	}

	alerts := make([]threat.Alert, 0, len(file.Alerts))
	for i, raw := range file.Alerts {
		alert := threat.Alert{
			ID:          raw.ID,
			Type:        raw.Type,
			Severity:    threat.Severity(raw.Severity),
			IP:          raw.IP,
			Description: raw.Description,
			Timestamp:   raw.Timestamp,
		}
		if err := normalize(&alert); err != nil {
			return nil, fmt.Errorf("threat seed entry %d: %w", i, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
