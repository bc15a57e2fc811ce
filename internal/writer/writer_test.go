package writer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northwind-sec/siemflow/internal/uem"
)

// TestToRow_IPv4Conversion checks dotted-decimal parsing and its
// invalid/empty fallback to zero.
func TestToRow_IPv4Conversion(t *testing.T) {
	good := uem.Event{uem.FieldSourceIP: "10.0.0.1"}
	require.Equal(t, uint32(167772161), ToRow(good, time.Now()).SourceIP)

	bad := uem.Event{uem.FieldSourceIP: "bad"}
	require.Equal(t, uint32(0), ToRow(bad, time.Now()).SourceIP)

	empty := uem.Event{}
	require.Equal(t, uint32(0), ToRow(empty, time.Now()).SourceIP)
}

func TestToRow_PortParsing(t *testing.T) {
	event := uem.Event{uem.FieldSourcePort: "8080", uem.FieldDestinationPort: "not-a-port"}
	row := ToRow(event, time.Now())
	require.Equal(t, uint16(8080), row.SourcePort)
	require.Equal(t, uint16(0), row.DestinationPort)
}

func TestToRow_DeviceVendorFallsBackToProvider(t *testing.T) {
	event := uem.Event{uem.FieldEventProvider: "http_json"}
	row := ToRow(event, time.Now())
	require.Equal(t, "http_json", row.DeviceVendor)
	require.Equal(t, "http_json", row.DeviceProduct)
}

func TestToRow_DeviceVendorPrefersExplicitValue(t *testing.T) {
	event := uem.Event{uem.FieldEventProvider: "http_json", uem.FieldDeviceVendor: "cisco"}
	row := ToRow(event, time.Now())
	require.Equal(t, "cisco", row.DeviceVendor)
}

func TestToRow_LogSourceFallbackChain(t *testing.T) {
	require.Equal(t, "10.0.0.1", ToRow(uem.Event{uem.FieldSourceIP: "10.0.0.1"}, time.Now()).LogSource)
	require.Equal(t, "host1", ToRow(uem.Event{uem.FieldHostName: "host1", uem.FieldSourceIP: "10.0.0.1"}, time.Now()).LogSource)
	require.Equal(t, "explicit", ToRow(uem.Event{uem.FieldLogSource: "explicit", uem.FieldHostName: "host1"}, time.Now()).LogSource)
}

func TestToRow_SeverityFallbackChain(t *testing.T) {
	require.Equal(t, "info", ToRow(uem.Event{}, time.Now()).Severity)
	require.Equal(t, "warn", ToRow(uem.Event{uem.FieldLogLevel: "warn"}, time.Now()).Severity)
	require.Equal(t, "medium", ToRow(uem.Event{uem.FieldSeverity: "medium", uem.FieldLogLevel: "warn"}, time.Now()).Severity)
	require.Equal(t, "critical", ToRow(uem.Event{uem.FieldEventSeverity: "critical", uem.FieldSeverity: "medium"}, time.Now()).Severity)
}
