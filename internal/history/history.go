// Package history keeps the most recent preview results, newest first.
package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/specialistvlad/graphquery/internal/node"
)

// DefaultSize is how many entries are kept when no size is configured.
const DefaultSize = 6

var (
	entriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphquery_history_entries_total",
		Help: "Preview history entries recorded, by outcome",
	}, []string{"outcome"})

	sizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphquery_history_size",
		Help: "Current number of entries in the preview history",
	})
)

// Entry is one submission outcome. It is never modified after creation.
type Entry struct {
	Seq int
	// Data and ContentType hold the preview payload of a successful entry.
	Data        []byte
	ContentType string
	// Error is the extracted message of a failed entry.
	Error string
	// NodeGraph is the graph as it was when the query was submitted.
	NodeGraph []*node.Node
	Success   bool
	CreatedAt time.Time
	RequestID uuid.UUID
}

// Push returns a new list with e in front and at most max entries. The input
// slice is not modified.
func Push(entries []*Entry, e *Entry, max int) []*Entry {
	if max < 1 {
		max = 1
	}
	n := len(entries) + 1
	if n > max {
		n = max
	}
	out := make([]*Entry, 0, n)
	out = append(out, e)
	return append(out, entries[:n-1]...)
}

// History is a bounded, newest-first list of entries with its own sequence
// counter. It is not safe for concurrent use.
type History struct {
	entries []*Entry
	max     int
	seq     int
}

// New creates a history holding at most max entries.
func New(max int) *History {
	if max < 1 {
		max = DefaultSize
	}
	return &History{max: max}
}

// NextSeq returns the sequence number for the next entry.
func (h *History) NextSeq() int {
	h.seq++
	return h.seq
}

// Add records e, evicting the oldest entries beyond capacity.
func (h *History) Add(e *Entry) {
	h.entries = Push(h.entries, e, h.max)
	outcome := "failure"
	if e.Success {
		outcome = "success"
	}
	entriesTotal.WithLabelValues(outcome).Inc()
	sizeGauge.Set(float64(len(h.entries)))
}

// Entries returns the entries, newest first. The slice is a copy.
func (h *History) Entries() []*Entry {
	return append([]*Entry(nil), h.entries...)
}

// Find returns the entry with the given sequence number.
func (h *History) Find(seq int) (*Entry, bool) {
	for _, e := range h.entries {
		if e.Seq == seq {
			return e, true
		}
	}
	return nil, false
}

func (h *History) Len() int { return len(h.entries) }

// Max returns the capacity.
func (h *History) Max() int { return h.max }
