package readyset

import "go.uber.org/atomic"

type Stats struct {
	Yields          atomic.Uint64
	NetSelections   atomic.Uint64
	BlockSelections atomic.Uint64
	Timeouts        atomic.Uint64
	Cancellations   atomic.Uint64
	Wakeups         atomic.Uint64
	SpuriousWakeups atomic.Uint64
	NetMarks        atomic.Uint64
	BlockMarks      atomic.Uint64
}

type StatsSnapshot struct {
	Yields          uint64 `json:"yields"`
	NetSelections   uint64 `json:"netSelections"`
	BlockSelections uint64 `json:"blockSelections"`
	Timeouts        uint64 `json:"timeouts"`
	Cancellations   uint64 `json:"cancellations"`
	Wakeups         uint64 `json:"wakeups"`
	SpuriousWakeups uint64 `json:"spuriousWakeups"`
	NetMarks        uint64 `json:"netMarks"`
	BlockMarks      uint64 `json:"blockMarks"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Yields:          s.Yields.Load(),
		NetSelections:   s.NetSelections.Load(),
		BlockSelections: s.BlockSelections.Load(),
		Timeouts:        s.Timeouts.Load(),
		Cancellations:   s.Cancellations.Load(),
		Wakeups:         s.Wakeups.Load(),
		SpuriousWakeups: s.SpuriousWakeups.Load(),
		NetMarks:        s.NetMarks.Load(),
		BlockMarks:      s.BlockMarks.Load(),
	}
}

func (s *Stats) recordSelection(sel Selection) {
	switch sel.Kind {
	case SelectNet:
		s.NetSelections.Inc()
	case SelectBlock:
		s.BlockSelections.Inc()
	}
}
