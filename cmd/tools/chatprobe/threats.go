package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

// parseThreats turns --threat flags into a feed snapshot. Flags are given
// oldest first; the snapshot lists the newest alert first.
func parseThreats(specs []string) ([]threat.Alert, error) {
	alerts := make([]threat.Alert, 0, len(specs))
	now := time.Now().UTC()
	for i := len(specs) - 1; i >= 0; i-- {
		alert, err := parseThreat(specs[i])
		if err != nil {
			return nil, err
		}
		alert.Timestamp = now
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func parseThreat(spec string) (threat.Alert, error) {
	parts := strings.SplitN(spec, ":", 4)
	if len(parts) < 2 {
		return threat.Alert{}, fmt.Errorf("invalid threat %q: want type:severity[:ip[:description]]", spec)
	}

	kind := strings.TrimSpace(parts[0])
	if kind == "" {
		return threat.Alert{}, fmt.Errorf("invalid threat %q: empty type", spec)
	}
	severity, err := threat.ParseSeverity(parts[1])
	if err != nil {
		return threat.Alert{}, fmt.Errorf("invalid threat %q: %w", spec, err)
	}

	alert := threat.Alert{
		ID:       uuid.NewString(),
		Type:     kind,
		Severity: severity,
	}
	if len(parts) > 2 {
		alert.IP = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		alert.Description = strings.TrimSpace(parts[3])
	}
	return alert, nil
}
