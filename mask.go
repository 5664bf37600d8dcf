package ledgerline

import "regexp"

// Events carry PII annotations under a reserved control key. The service
// uses the recorded byte ranges to mask values on display; the values
// themselves are transmitted unchanged.
const controlKey = ".ledgerline"

// SensitiveRange marks a span of a field's value as PII.
type SensitiveRange struct {
	Label string `json:"label"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

// SensitiveValue wraps a field value whose entire content is PII. Publish
// unwraps it and records the matching range.
type SensitiveValue struct {
	Label string
	Value string
}

// Sensitive marks a whole value as PII with the given label.
func Sensitive(label, value string) SensitiveValue {
	return SensitiveValue{Label: label, Value: value}
}

// MarkSensitive is the standard PII processor: it unwraps SensitiveValue
// fields, replacing each with its plain string value and recording a range
// covering the whole value. It is installed with WithProcessors and runs on
// every published event.
func MarkSensitive(event AuditEvent) AuditEvent {
	for field, value := range event {
		sv, ok := value.(SensitiveValue)
		if !ok {
			continue
		}
		event[field] = sv.Value
		addRange(event, field, SensitiveRange{Label: sv.Label, Begin: 0, End: len(sv.Value)})
	}
	return event
}

// PatternProcessor returns a processor that scans every string field for
// matches of re and records each match as a PII range with the given label.
func PatternProcessor(label string, re *regexp.Regexp) EventProcessor {
	return func(event AuditEvent) AuditEvent {
		for field, value := range event {
			if field == controlKey {
				continue
			}
			s, ok := value.(string)
			if !ok {
				continue
			}
			for _, m := range re.FindAllStringIndex(s, -1) {
				addRange(event, field, SensitiveRange{Label: label, Begin: m[0], End: m[1]})
			}
		}
		return event
	}
}

// emailPattern matches the common shape of an email address.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// MarkEmails records every email address found in string fields as PII.
func MarkEmails(event AuditEvent) AuditEvent {
	return PatternProcessor("email", emailPattern)(event)
}

// addRange appends a PII range for field under the event's control key.
func addRange(event AuditEvent, field string, r SensitiveRange) {
	control, _ := event[controlKey].(map[string]any)
	if control == nil {
		control = map[string]any{}
		event[controlKey] = control
	}
	pii, _ := control["pii"].(map[string][]SensitiveRange)
	if pii == nil {
		pii = map[string][]SensitiveRange{}
		control["pii"] = pii
	}
	pii[field] = append(pii[field], r)
}
