// Package emit provides structured event emission for the run engine:
// a small interface plus log, buffered, no-op and OpenTelemetry-backed
// implementations, so a caller can wire whichever observability
// backend fits their deployment without the engine ever depending on
// one directly.
package emit

// Emitter receives Events produced by the engine. Implementations must
// not block the engine for long: Emit is called synchronously from the
// run's goroutine at every state transition.
type Emitter interface {
	// Emit records a single event.
	Emit(event Event)
	// EmitBatch records multiple events; implementations that buffer
	// may use this to avoid per-event overhead.
	EmitBatch(events []Event)
	// Flush forces any buffered events to be delivered. Called when a
	// run terminates.
	Flush()
}
