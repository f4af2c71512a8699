package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_ingest_events_total",
			Help: "Total number of provider notifications received",
		},
		[]string{"source", "status"},
	)

	SuppressedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_ingest_suppressed_messages_total",
			Help: "Messages dropped by the template-header duplicate rule",
		},
	)

	// Stream metrics
	ConnectedStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_stream_connections",
			Help: "Currently attached operator stream connections",
		},
	)

	FramesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_stream_frames_delivered_total",
			Help: "Frames queued for delivery across all connections",
		},
	)

	FramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_stream_frames_dropped_total",
			Help: "Frames dropped because a connection buffer was full",
		},
	)

	// Assignment metrics
	AutoAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_auto_assignments_total",
			Help: "Auto-assignment attempts by outcome",
		},
		[]string{"outcome"},
	)
)
