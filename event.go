package ledgerline

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// AuditEvent is one audit-trail event. Events are schemaless on the wire;
// well-known fields like "action", "actor", and "location" are plain keys.
type AuditEvent map[string]any

// Decode unmarshals the event into a caller-defined struct. Field names
// match either mapstructure tags or case-insensitive field names.
func (e AuditEvent) Decode(out any) error {
	if err := mapstructure.Decode(map[string]any(e), out); err != nil {
		return fmt.Errorf("ledgerline: decode event: %w", err)
	}
	return nil
}

// clone returns a shallow copy so processors never mutate the caller's map.
func (e AuditEvent) clone() AuditEvent {
	out := make(AuditEvent, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// EventProcessor transforms an event before it is published. Processors run
// in registration order; each receives the previous processor's output.
type EventProcessor func(AuditEvent) AuditEvent

// applyProcessors runs the client's processor chain over a copy of the
// event.
func (c *Client) applyProcessors(event AuditEvent) AuditEvent {
	out := event.clone()
	for _, p := range c.processors {
		out = p(out)
	}
	return out
}
