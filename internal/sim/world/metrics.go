package world

import "time"

type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Characters int `json:"characters"`
	Sessions   int `json:"sessions"`
	Pickups    int `json:"pickups"`
	Entities   int `json:"entities"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	// Accepted and Rejected count command acks since start.
	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

// Metrics returns the figures published at the end of the last step. Safe
// to call from any goroutine.
func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, ok := w.metrics.Load().(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(nowTick uint64, started time.Time) {
	w.metrics.Store(WorldMetrics{
		Tick:       nowTick,
		Characters: len(w.characters),
		Sessions:   len(w.sessions),
		Pickups:    len(w.pickups),
		Entities:   len(w.entities),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS:   float64(time.Since(started).Microseconds()) / 1000,
		Accepted: w.accepted,
		Rejected: w.rejected,
	})
}
