// Package uem defines the raw and normalized event shapes shared by every
// pipeline stage: RawEvent as produced by ingress, and the Unified Event
// Model (UEM) produced by the normalizer.
package uem

// Reserved RawEvent field names, set by ingress.
const (
	FieldSourceType = "source_type"
	FieldSource     = "source"
	FieldMessage    = "message"
)

// Required and well-known UEM field names.
const (
	FieldEventProvider   = "event.provider"
	FieldEventOriginal   = "event.original"
	FieldEventCategory   = "event.category"
	FieldEventType       = "event.type"
	FieldEventSeverity   = "event.severity"
	FieldSourceIP        = "source.ip"
	FieldDestinationIP   = "destination.ip"
	FieldSourcePort      = "source.port"
	FieldDestinationPort = "destination.port"
	FieldDeviceVendor    = "device.vendor"
	FieldDeviceProduct   = "device.product"
	FieldLogLevel        = "log.level"
	FieldHostName        = "host.name"
	FieldTags            = "tags"
	FieldLogSource       = "log_source"
	FieldSeverity        = "severity"
)

// RawEvent is a flat mapping of field name to string value, as produced by
// the ingress adapters (HTTP/JSON, syslog, ...). All values are strings;
// absent fields are simply missing from the map.
type RawEvent map[string]string

// Event is the Unified Event Model: a flat mapping of dotted field name to
// string value. Once an Event has been produced by the normalizer,
// event.original is non-empty, and event.provider is non-empty whenever
// the rule maps it or the raw event carries a source_type.
type Event map[string]string

// Clone returns a shallow copy, safe for the caller to mutate without
// affecting the original map.
func (e Event) Clone() Event {
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Get returns the value for key, or "" if absent — missing UEM fields are
// always treated as empty strings by downstream evaluators, never as an
// error.
func (e Event) Get(key string) string {
	return e[key]
}
