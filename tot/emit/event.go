package emit

import "time"

// Event is one observability record emitted by the run engine at a
// state transition or component call. Meta carries arbitrary structured
// detail (e.g. "stop_reason", "nodes_created", "cache_hit").
type Event struct {
	RunID string
	State string
	NodeID string
	Msg   string
	Meta  map[string]interface{}
	Time  time.Time
}
