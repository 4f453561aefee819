// Package feed ingests alerts published by the monitoring pipeline and
// applies them to the in-memory threat feed.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

var ErrEmptyPayload = errors.New("empty alert payload")

// Sink receives decoded alerts. *threat.Feed satisfies it.
type Sink interface {
	Push(alerts ...threat.Alert)
	Replace(alerts []threat.Alert)
}

// Update is one decoded payload. A JSON array is a full snapshot; a single
// object is a newly raised alert.
type Update struct {
	Alerts   []threat.Alert
	Snapshot bool
}

// Decode parses a payload from the monitoring pipeline.
func Decode(payload []byte) (Update, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return Update{}, ErrEmptyPayload
	}

	var update Update
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &update.Alerts); err != nil {
			return Update{}, fmt.Errorf("decode alert snapshot: %w", err)
		}
		update.Snapshot = true
	} else {
		var alert threat.Alert
		if err := json.Unmarshal(trimmed, &alert); err != nil {
			return Update{}, fmt.Errorf("decode alert: %w", err)
		}
		update.Alerts = []threat.Alert{alert}
	}

	for i := range update.Alerts {
		if err := normalize(&update.Alerts[i]); err != nil {
			return Update{}, err
		}
	}
	return update, nil
}

// Apply writes update into sink.
func Apply(sink Sink, update Update) {
	if update.Snapshot {
		sink.Replace(update.Alerts)
		return
	}
	sink.Push(update.Alerts...)
}

func normalize(a *threat.Alert) error {
	if a.Type == "" {
		return fmt.Errorf("alert %q has no type", a.ID)
	}
	severity, err := threat.ParseSeverity(string(a.Severity))
	if err != nil {
		return fmt.Errorf("alert %q: %w", a.ID, err)
	}
	a.Severity = severity
	return nil
}

// handle decodes and applies one payload, logging instead of failing so a
// malformed message never stops a subscription.
func handle(sink Sink, logger *zap.Logger, origin string, payload []byte) {
	update, err := Decode(payload)
	if err != nil {
		logger.Warn("dropping alert payload", zap.String("origin", origin), zap.Error(err))
		return
	}
	Apply(sink, update)
	logger.Debug("alert payload applied",
		zap.String("origin", origin),
		zap.Int("alerts", len(update.Alerts)),
		zap.Bool("snapshot", update.Snapshot))
}
