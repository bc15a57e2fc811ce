package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// EventRow is a fully normalized-and-filtered event as written to the
// events table — the writer's sink representation of a UEM document.
type EventRow struct {
	EventTime      time.Time
	Provider       string
	Original       string
	Category       string
	Type           string
	Severity       string
	SourceIP       uint32
	DestinationIP  uint32
	SourcePort     uint16
	DestinationPort uint16
	DeviceVendor   string
	DeviceProduct  string
	LogSource      string
	HostName       string
	Tags           string
	Message        string
}

// InsertEventsBatch bulk-inserts rows into events using pgx's COPY
// protocol, the fastest bulk-load path pgx exposes and the one the
// writer needs to keep up with a high-throughput filtered stream.
func (s *Store) InsertEventsBatch(ctx context.Context, rows []EventRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"events"},
		[]string{
			"event_time", "provider", "original", "category", "type", "severity",
			"source_ip", "destination_ip", "source_port", "destination_port",
			"device_vendor", "device_product", "log_source", "host_name", "tags", "message",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]interface{}, error) {
			r := rows[i]
			return []interface{}{
				r.EventTime, r.Provider, r.Original, r.Category, r.Type, r.Severity,
				r.SourceIP, r.DestinationIP, r.SourcePort, r.DestinationPort,
				r.DeviceVendor, r.DeviceProduct, r.LogSource, r.HostName, r.Tags, r.Message,
			}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("store: insert events batch: %w", err)
	}
	return n, nil
}
