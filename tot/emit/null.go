package emit

// NullEmitter discards every event. Useful as the default when a caller
// doesn't wire an emitter at all.
type NullEmitter struct{}

func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(event Event)       {}
func (n *NullEmitter) EmitBatch(events []Event) {}
func (n *NullEmitter) Flush()                 {}
