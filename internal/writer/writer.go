// Package writer maps filtered UEM events into column-store rows and
// bulk-inserts them, advancing a durable cursor only after a batch's
// insert succeeds.
package writer

import (
	"encoding/binary"
	"net"
	"strconv"
	"time"

	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// ToRow maps a single UEM event into an EventRow. now is the insertion
// timestamp (wall clock, UTC).
func ToRow(event uem.Event, now time.Time) store.EventRow {
	srcPort, dstPort := parsePort(event.Get(uem.FieldSourcePort)), parsePort(event.Get(uem.FieldDestinationPort))

	return store.EventRow{
		EventTime:       now,
		Provider:        event.Get(uem.FieldEventProvider),
		Original:        event.Get(uem.FieldEventOriginal),
		Category:        event.Get(uem.FieldEventCategory),
		Type:            event.Get(uem.FieldEventType),
		Severity:        resolveSeverity(event),
		SourceIP:        parseIPv4(event.Get(uem.FieldSourceIP)),
		DestinationIP:   parseIPv4(event.Get(uem.FieldDestinationIP)),
		SourcePort:      srcPort,
		DestinationPort: dstPort,
		DeviceVendor:    firstNonEmpty(event.Get(uem.FieldDeviceVendor), event.Get(uem.FieldEventProvider)),
		DeviceProduct:   firstNonEmpty(event.Get(uem.FieldDeviceProduct), event.Get(uem.FieldEventProvider)),
		LogSource:       firstNonEmpty(event.Get(uem.FieldLogSource), event.Get(uem.FieldHostName), event.Get(uem.FieldSourceIP)),
		HostName:        event.Get(uem.FieldHostName),
		Tags:            event.Get(uem.FieldTags),
		Message:         event.Get(uem.FieldEventOriginal),
	}
}

// resolveSeverity follows the fallback chain: event.severity ->
// severity -> log.level -> "info".
func resolveSeverity(event uem.Event) string {
	return firstNonEmptyDefault("info",
		event.Get(uem.FieldEventSeverity),
		event.Get(uem.FieldSeverity),
		event.Get(uem.FieldLogLevel),
	)
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func firstNonEmptyDefault(def string, candidates ...string) string {
	if v := firstNonEmpty(candidates...); v != "" {
		return v
	}
	return def
}

// parseIPv4 converts a dotted-quad string to its 32-bit integer
// representation; invalid or empty input yields 0.
func parseIPv4(s string) uint32 {
	if s == "" {
		return 0
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return 0
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}

// parsePort parses a decimal port string, defaulting to 0 on any
// parse failure.
func parsePort(s string) uint16 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}
