// Package metrics collects process-wide counters for embed and extract runs.
package metrics

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Metrics tracks packet and entry counters across operations.
type Metrics struct {
	mu sync.RWMutex

	// Embed path
	PacketsCopied  int64
	PacketsEmitted int64
	EntriesWritten int64

	// Extract path
	PacketsScanned    int64
	EntriesRecovered  int64
	PartialsDiscarded int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// GlobalMetrics is the process-wide collector.
var GlobalMetrics = NewMetrics()

// RecordEmbed records the result of one writer pass.
func (m *Metrics) RecordEmbed(packetsCopied, packetsEmitted, entriesWritten int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PacketsCopied += packetsCopied
	m.PacketsEmitted += packetsEmitted
	m.EntriesWritten += entriesWritten

	log.Debug().
		Int64("packets_copied", packetsCopied).
		Int64("packets_emitted", packetsEmitted).
		Int64("entries", entriesWritten).
		Msg("embed completed")
}

// RecordExtract records the result of one reader pass.
func (m *Metrics) RecordExtract(packetsScanned, entriesRecovered, partialsDiscarded int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PacketsScanned += packetsScanned
	m.EntriesRecovered += entriesRecovered
	m.PartialsDiscarded += partialsDiscarded

	log.Debug().
		Int64("packets_scanned", packetsScanned).
		Int64("entries", entriesRecovered).
		Int64("partials_discarded", partialsDiscarded).
		Msg("extract completed")
}

// Snapshot returns the current counter values keyed by metric name.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int64{
		"tsmark_packets_copied_total":     m.PacketsCopied,
		"tsmark_packets_emitted_total":    m.PacketsEmitted,
		"tsmark_entries_written_total":    m.EntriesWritten,
		"tsmark_packets_scanned_total":    m.PacketsScanned,
		"tsmark_entries_recovered_total":  m.EntriesRecovered,
		"tsmark_partials_discarded_total": m.PartialsDiscarded,
	}
}

// LogSummary emits the current counters at info level.
func LogSummary() {
	for name, value := range GlobalMetrics.Snapshot() {
		log.Info().Int64(name, value).Msg("metrics")
	}
}
